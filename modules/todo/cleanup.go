package todo

import (
	"context"
	"fmt"
)

// CleanupPolicy decides what a failed image deletion does to the operation
// that triggered it.
type CleanupPolicy int

const (
	// CleanupBestEffort logs a failed deletion and lets the operation go on.
	// Used when deleting a todo and when replacing its image.
	CleanupBestEffort CleanupPolicy = iota

	// CleanupStrict fails the operation when the deletion fails. Used by
	// RemoveImage, where deleting the image is the requested action.
	CleanupStrict
)

func (p CleanupPolicy) String() string {
	switch p {
	case CleanupBestEffort:
		return "best-effort"
	case CleanupStrict:
		return "strict"
	default:
		return fmt.Sprintf("CleanupPolicy(%d)", int(p))
	}
}

// removeImage deletes the object behind imageURL under the given policy.
func (s *Service) removeImage(ctx context.Context, owner, todoID, imageURL string, policy CleanupPolicy) error {
	err := s.images.Remove(ctx, owner, imageURL)
	if err == nil {
		return nil
	}

	if policy == CleanupStrict {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	s.logger.Warn("Image cleanup failed",
		"todo_id", todoID,
		"owner", owner,
		"image_url", imageURL,
		"policy", policy.String(),
		"error", err)
	return nil
}
