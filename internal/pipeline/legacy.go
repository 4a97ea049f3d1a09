package pipeline

import (
	"context"
	"errors"

	"github.com/aaronromeo/swolecoach/internal/history"
)

// legacyRegister logs one exercise. The fixed pattern is tried first and the
// model only when it does not match.
func (n *nodes) legacyRegister(ctx context.Context, st State) State {
	l, err := history.Parse(st.Message)
	if err != nil && n.d.Model != nil {
		n.d.Logger.Debug("pattern did not match, asking the model", "turn_id", st.TurnID)
		l, err = n.d.Model.ParseExerciseLog(ctx, st.Message)
	}
	if err != nil {
		msg := history.ErrUnparseable.Error()
		if !errors.Is(err, history.ErrUnparseable) {
			msg += ": " + err.Error()
		}
		return st.Fail(KindUnparseableLog, NodeLegacyRegister, msg)
	}

	e, err := n.d.History.Append(st.UserID, l)
	if err != nil {
		return st.Fail(KindHistory, NodeLegacyRegister, "history write failed: "+err.Error())
	}
	st.Response = "✅ Registrado: " + e.Summary()
	st.Step = StepExerciseLogged
	return st
}

func (n *nodes) legacyQuery(_ context.Context, st State) State {
	entries, err := n.d.History.Last(st.UserID, n.d.HistoryLimit)
	if err != nil {
		return st.Fail(KindHistory, NodeLegacyQuery, "history read failed: "+err.Error())
	}
	st.Response = history.FormatRecent(entries)
	st.Step = StepHistoryQueried
	return st
}
