package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/example/todo-tracker/client"
	domain "github.com/example/todo-tracker/domain/todo"
	"github.com/example/todo-tracker/modules/images"
	"github.com/example/todo-tracker/tui"
	"github.com/spf13/cobra"
)

func newListCmd(app *App) *cobra.Command {
	var search, filter string
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List todos, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			todos, err := app.client.Search(cmd.Context(), domain.Filter{
				Search: search,
				Kind:   domain.ParseFilterKind(filter),
			})
			if err != nil {
				return app.explain(err)
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(todos)
			}
			printTodos(cmd.OutOrStdout(), todos, time.Now())
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive match on title or description")
	cmd.Flags().StringVar(&filter, "filter", "all", "all|active|completed")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newAddCmd(app *App) *cobra.Command {
	var description, imagePath string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a todo",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := domain.CreateInput{Title: strings.Join(args, " ")}
			if description != "" {
				in.Description = &description
			}
			if strings.TrimSpace(in.Title) == "" {
				return domain.ErrTitleRequired
			}
			var upload domain.Upload
			if imagePath != "" {
				u, err := client.ReadUpload(imagePath)
				if err != nil {
					return err
				}
				if err := images.ValidateUpload(u.ContentType, u.Size()); err != nil {
					return err
				}
				upload = u
			}

			t, err := app.client.Create(cmd.Context(), in)
			if err != nil {
				return app.explain(err)
			}
			tui.OK(cmd.OutOrStdout(), "created "+shortID(t.ID)+" "+t.Title)

			if imagePath != "" {
				url, err := app.client.AttachImage(cmd.Context(), t.ID, upload)
				if err != nil {
					return fmt.Errorf("todo created but the image upload failed: %w", app.explain(err))
				}
				tui.OK(cmd.OutOrStdout(), "image "+url)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Description")
	cmd.Flags().StringVar(&imagePath, "image", "", "Image file to attach")
	return cmd
}

func newEditCmd(app *App) *cobra.Command {
	var title, description string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change title or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch domain.Patch
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if patch.IsEmpty() {
				return errors.New("nothing to change: pass --title and/or --description")
			}
			id, err := app.resolveID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := app.client.Update(cmd.Context(), id, patch); err != nil {
				return app.explain(err)
			}
			tui.OK(cmd.OutOrStdout(), "updated "+shortID(id))
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description (empty clears it)")
	return cmd
}

func newDoneCmd(app *App, completed bool) *cobra.Command {
	use, short, verb := "done <id>", "Mark a todo as done", "done"
	if !completed {
		use, short, verb = "undone <id>", "Mark a todo as not done", "not done"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := app.resolveID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := app.client.Toggle(cmd.Context(), id, completed); err != nil {
				return app.explain(err)
			}
			tui.OK(cmd.OutOrStdout(), shortID(id)+" marked as "+verb)
			return nil
		},
	}
}

func newRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a todo and its image",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := app.resolveID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := app.client.Delete(cmd.Context(), id); err != nil {
				return app.explain(err)
			}
			tui.OK(cmd.OutOrStdout(), "deleted "+shortID(id))
			return nil
		},
	}
}

func newImageCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Attach, remove or link a todo's image",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "attach <id> <file>",
		Short: "Upload a JPEG, PNG, WebP or GIF up to 5MB",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			upload, err := client.ReadUpload(args[1])
			if err != nil {
				return err
			}
			if err := images.ValidateUpload(upload.ContentType, upload.Size()); err != nil {
				return err
			}
			id, err := app.resolveID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			url, err := app.client.AttachImage(cmd.Context(), id, upload)
			if err != nil {
				return app.explain(err)
			}
			tui.OK(cmd.OutOrStdout(), "image "+url)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "Remove the image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := app.resolveID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := app.client.RemoveImage(cmd.Context(), id); err != nil {
				return app.explain(err)
			}
			tui.OK(cmd.OutOrStdout(), "image removed from "+shortID(id))
			return nil
		},
	})

	var opts images.RenditionOptions
	urlCmd := &cobra.Command{
		Use:   "url <id>",
		Short: "Print the image URL, optionally for a resized rendition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := app.findTodo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !t.HasImage() {
				return fmt.Errorf("%s has no image", shortID(t.ID))
			}
			fmt.Fprintln(cmd.OutOrStdout(), images.OptimizedURL(*t.ImageURL, opts))
			return nil
		},
	}
	urlCmd.Flags().IntVar(&opts.Width, "width", 0, "Width in pixels")
	urlCmd.Flags().IntVar(&opts.Height, "height", 0, "Height in pixels")
	urlCmd.Flags().IntVar(&opts.Quality, "quality", 0, "Quality 20-100")
	urlCmd.Flags().StringVar(&opts.Format, "format", "", "webp|jpeg|png")
	cmd.AddCommand(urlCmd)

	return cmd
}

func newStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.client.Stats(cmd.Context())
			if err != nil {
				return app.explain(err)
			}
			tui.Panel(cmd.OutOrStdout(), []string{
				fmt.Sprintf("Total %d   Active %d   Completed %d", s.Total, s.Active, s.Completed),
				tui.ProgressBar(s.Completed, s.Total, 28),
			})
			return nil
		},
	}
}

func newActivityCmd(app *App) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show recent changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := app.client.Activity(cmd.Context(), limit)
			if err != nil {
				return app.explain(err)
			}
			printActivity(cmd.OutOrStdout(), entries, time.Now())
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of entries (1-100)")
	return cmd
}

func newTUICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Interactive list (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app)
		},
	}
}

func runTUI(cmd *cobra.Command, app *App) error {
	err := tui.Run(cmd.Context(), app.client, client.ReadUpload)
	if errors.Is(err, tui.ErrSessionExpired) {
		return app.explain(domain.ErrUnauthenticated)
	}
	return app.explain(err)
}

func printTodos(w io.Writer, todos []domain.Todo, now time.Time) {
	if len(todos) == 0 {
		fmt.Fprintln(w, "no todos")
		return
	}
	for _, t := range todos {
		box := "☐"
		if t.Completed {
			box = "☑"
		}
		line := fmt.Sprintf("%s %s %s", shortID(t.ID), box, t.Title)
		if t.Description != nil {
			line += " - " + *t.Description
		}
		if t.HasImage() {
			line += " [image]"
		}
		fmt.Fprintf(w, "%s  (%s)\n", line, humanize.RelTime(t.CreatedAt, now, "ago", "from now"))
	}
	stats := domain.Count(todos)
	fmt.Fprintf(w, "\n%s\n", tui.ProgressBar(stats.Completed, stats.Total, 28))
}

func printActivity(w io.Writer, entries []client.ActivityEntry, now time.Time) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "no recent activity")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%-14s %s %s\n", humanize.RelTime(e.At, now, "ago", "from now"), shortID(e.TodoID), e.Message)
	}
}

// shortID is the display form of an id. Commands accept any unique prefix.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
