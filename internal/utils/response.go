package utils

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// MsgpackContentType is served when the client asks for it in Accept.
const MsgpackContentType = "application/msgpack"

// WantsMsgpack reports whether the request prefers a msgpack body.
func WantsMsgpack(r *http.Request) bool {
	accept := strings.ToLower(r.Header.Get("Accept"))
	return strings.Contains(accept, MsgpackContentType) || strings.Contains(accept, "application/x-msgpack")
}

// WriteResponse encodes data as JSON, or msgpack when the request asks for it.
// Struct fields are keyed by their json tags in both encodings.
func WriteResponse(w http.ResponseWriter, r *http.Request, status int, data interface{}, log zerolog.Logger) {
	if r != nil && WantsMsgpack(r) {
		w.Header().Set("Content-Type", MsgpackContentType)
		w.WriteHeader(status)

		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		if err := enc.Encode(data); err != nil {
			log.Error().Err(err).Msg("Failed to encode msgpack response")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
