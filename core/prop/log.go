package prop

import (
	"log/slog"
)

// Slog wraps a Prop as a slog.LogValuer to not render it
// unless it definitely needs to be logged
func Slog(p Prop) slog.LogValuer {
	return propLogValuer{p}
}

type propLogValuer struct{ Prop }

func (l propLogValuer) LogValue() slog.Value {
	return slog.StringValue(l.Prop.String())
}

func LogFamily(f *Family) slog.LogValuer {
	return familyLogValuer{f}
}

type familyLogValuer struct{ *Family }

func (l familyLogValuer) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", l.Name),
		slog.Int("rules", len(l.Rules)),
	)
}
