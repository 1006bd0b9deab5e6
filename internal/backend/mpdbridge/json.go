package mpdbridge

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

func encodeJSON(v any) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("Encode event payload")
		return nil, err
	}
	return data, nil
}
