package term

import (
	"log/slog"
)

// Slog wraps a Term as a slog.LogValuer to not render it
// unless it definitely needs to be logged
func Slog(t Term) slog.LogValuer {
	return termLogValuer{t}
}

type termLogValuer struct{ Term }

func (l termLogValuer) LogValue() slog.Value {
	return slog.StringValue(l.Term.String())
}
