package resolver

import (
	"log/slog"
	"strings"

	"purl-resolver/internal/model"
	"purl-resolver/internal/negotiation"
)

// AccessPoints converts NBA service access points into catalog entries,
// preserving order.
//
// An access point without a URI is kept with an empty location: it is listed
// among the alternatives but never selected. A missing format means
// image/jpeg, the only format the imports ever left blank. A format that does
// not parse, or that is itself a media range, is skipped with a warning.
func AccessPoints(logger *slog.Logger, saps []model.ServiceAccessPoint) []negotiation.AccessPoint {
	out := make([]negotiation.AccessPoint, 0, len(saps))
	for _, sap := range saps {
		uri := strings.TrimSpace(sap.AccessURI)

		mt := negotiation.ImageJPEG
		if strings.TrimSpace(sap.Format) != "" {
			parsed, err := negotiation.ParseMediaType(sap.Format)
			if err != nil || parsed.IsWildcard() {
				logger.Warn("invalid access point format (skipped)",
					slog.String("format", sap.Format),
					slog.String("uri", uri))
				continue
			}
			mt = parsed
		}

		if uri == "" {
			logger.Debug("access point without URI (not servable)", slog.String("format", mt.Essence()))
		}

		out = append(out, negotiation.AccessPoint{MediaType: mt, Location: uri})
	}
	return out
}

// multimediaAccessPoints flattens the access points of several multimedia
// documents in document order.
func multimediaAccessPoints(docs []model.MultiMediaObject) []model.ServiceAccessPoint {
	var saps []model.ServiceAccessPoint
	for _, d := range docs {
		saps = append(saps, d.ServiceAccessPoints...)
	}
	return saps
}
