package images

import "errors"

// Sentinel errors for image operations. Messages are shown to end users.
var (
	// ErrInvalidFileType is returned for uploads outside the allowed image types.
	ErrInvalidFileType = errors.New("Invalid file type. Please upload JPEG, PNG, WebP, or GIF images.")

	// ErrFileTooLarge is returned for uploads above MaxUploadSize.
	ErrFileTooLarge = errors.New("File too large. Please upload images smaller than 5MB.")

	// ErrInvalidImageURL is returned when an image URL does not name an object in the bucket.
	ErrInvalidImageURL = errors.New("Invalid image URL")

	// ErrForbiddenImage is returned when the object is outside the caller's prefix.
	ErrForbiddenImage = errors.New("Unauthorized to delete this image")

	// ErrObjectExists is returned when an upload would overwrite an object.
	ErrObjectExists = errors.New("object already exists")

	// ErrObjectNotFound is returned when a key has no stored object.
	ErrObjectNotFound = errors.New("object not found")
)
