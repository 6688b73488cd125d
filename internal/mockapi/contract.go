package mockapi

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formsubmit/pkg/forms"
)

var (
	contractOnce sync.Once
	contractJSON []byte
	contractErr  error
)

// contractDocument renders the embedded form contract as OpenAPI JSON, the
// way FastAPI publishes /openapi.json.
func contractDocument() ([]byte, error) {
	contractOnce.Do(func() {
		raw, err := fs.ReadFile(forms.Definitions(), forms.DefaultContract)
		if err != nil {
			contractErr = fmt.Errorf("mockapi: read contract: %w", err)
			return
		}
		doc, err := openapi3.NewLoader().LoadFromData(raw)
		if err != nil {
			contractErr = fmt.Errorf("mockapi: load contract: %w", err)
			return
		}
		if contractJSON, err = doc.MarshalJSON(); err != nil {
			contractErr = fmt.Errorf("mockapi: encode contract: %w", err)
		}
	})
	return contractJSON, contractErr
}

func (s *Server) handleContract(w http.ResponseWriter, _ *http.Request) {
	data, err := contractDocument()
	if err != nil {
		s.logger.Error("contract", slog.Any("error", err))
		writeDetail(w, http.StatusInternalServerError, "Contract unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
