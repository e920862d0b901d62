package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/go-chi/chi/v5"
)

const maxInspectionImages = 10

// uploadVerificationImagesHandler attaches inspection photos to an open
// verification. Photos land in Cloudinary first; the URLs are appended to
// the verification record only when all uploads succeed.
func (app *application) uploadVerificationImagesHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		app.unauthorizedErrorResponse(w, r, errors.New("check Bearer token"))
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "verificationID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid verificationID: %w", err))
		return
	}

	const maxBytes = 15 * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("parse form: %w", err))
		return
	}

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		app.badRequestResponse(w, r, errors.New("no images provided"))
		return
	}
	if len(files) > maxInspectionImages {
		app.badRequestResponse(w, r, fmt.Errorf("maximum %d images allowed", maxInspectionImages))
		return
	}

	var urls []string
	for _, fileHeader := range files {
		file, err := fileHeader.Open()
		if err != nil {
			app.internalServerError(w, r, fmt.Errorf("open file: %w", err))
			return
		}

		publicID := fmt.Sprintf("verification_%d_image_%d", id, time.Now().UnixNano())
		url, err := app.uploadToCloudinaryWithID(file, publicID)
		file.Close()
		if err != nil {
			app.internalServerError(w, r, err)
			return
		}

		urls = append(urls, url)
	}

	if err := app.store.Verifications.AddImages(r.Context(), id, user.ID, urls); err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusCreated, map[string][]string{"images": urls})
}

// uploadToCloudinaryWithID uploads a file to Cloudinary using a custom public ID.
func (app *application) uploadToCloudinaryWithID(file io.Reader, publicID string) (string, error) {
	resp, err := app.cld.Upload.Upload(
		context.Background(),
		file,
		uploader.UploadParams{
			Folder:    "verifications",
			PublicID:  publicID,
			Overwrite: api.Bool(false),
		},
	)
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	return resp.SecureURL, nil
}
