package negotiation

import (
	"log/slog"
	"strings"
)

// AcceptOverrideParam is the query parameter that stands in for Accept headers.
// When present, real Accept headers are ignored.
const AcceptOverrideParam = "__accept"

// ParseRequested turns raw Accept header values, or the override parameter
// when it is non-nil, into the requested media types in client order.
//
// Each value is split on commas and every chunk is parsed on its own. Chunks
// that do not parse are logged and dropped. Duplicates are kept. Quality
// parameters are retained on the returned values but play no part in ordering:
// header order is the preference order.
func ParseRequested(logger *slog.Logger, acceptValues []string, override *string) []MediaType {
	if override != nil {
		return parseOverride(logger, *override)
	}

	var types []MediaType
	for _, header := range acceptValues {
		chunks := strings.Split(header, ",")
		for _, chunk := range chunks {
			mt, err := ParseMediaType(chunk)
			if err != nil {
				msg := "invalid media type in Accept header (ignored)"
				if len(chunks) == 1 {
					msg = "invalid Accept header (ignored)"
				}
				logger.Warn(msg,
					slog.String("value", chunk),
					slog.String("error", err.Error()))
				continue
			}
			types = append(types, mt)
		}
	}
	return types
}

func parseOverride(logger *slog.Logger, param string) []MediaType {
	chunks := strings.Split(param, ",")
	types := make([]MediaType, 0, len(chunks))
	for _, chunk := range chunks {
		mt, err := ParseMediaType(chunk)
		if err != nil {
			logger.Warn("invalid media type in "+AcceptOverrideParam+" parameter (ignored)",
				slog.String("value", chunk),
				slog.String("error", err.Error()))
			continue
		}
		types = append(types, mt)
	}
	return types
}
