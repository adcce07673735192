package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/tellsiddh/collections/internal/collection"
	"github.com/tellsiddh/collections/internal/httpserver/deps"
	"github.com/tellsiddh/collections/internal/logger"
	"github.com/tellsiddh/collections/internal/utils"
)

const (
	exportFilename = "my-collections.json"
	msgImportError = "Error importing data. Please check the file format."

	defaultMaxImportBytes = 5 << 20
)

// Export downloads the whole collection as JSON.
func Export(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := d.Store.Export(r.Context())
		if err != nil {
			d.Logger.Error("failed to export collection", logger.Error(err))
			http.Error(w, "failed to export collection", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(data)
	}
}

// Import replaces the collection with an uploaded export file.
func Import(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := d.MaxImportBytes
		if limit <= 0 {
			limit = defaultMaxImportBytes
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))

		data, err := readUpload(r, limit)
		if err != nil {
			d.Logger.Warn("import upload rejected", logger.Error(err))
			renderPage(w, r, d, http.StatusBadRequest, collection.Page{Error: msgImportError})
			return
		}

		n, err := d.Store.Import(r.Context(), data)
		switch {
		case errors.Is(err, collection.ErrInvalidImport):
			d.Logger.Warn("import rejected", logger.Error(err))
			renderPage(w, r, d, http.StatusBadRequest, collection.Page{Error: msgImportError})
			return
		case err != nil:
			d.Logger.Error("failed to import collection", logger.Error(err))
			http.Error(w, "failed to import collection", http.StatusInternalServerError)
			return
		}

		d.Logger.Info("collection replaced by import", logger.Int("count", n))
		http.Redirect(w, r, "/?notice=imported", http.StatusSeeOther)
	}
}

func readUpload(r *http.Request, limit int64) ([]byte, error) {
	if err := r.ParseMultipartForm(limit); err != nil {
		return nil, err
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, err
	}
	defer utils.Close(file)

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errors.New("import file too large")
	}
	return data, nil
}
