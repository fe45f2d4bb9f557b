package match

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/medimatch"
)

// Greeting opens every conversation.
const Greeting = "Hello! I'm here to help you find the right doctor. Please tell me about your symptoms and location."

// Assistant messages for outcomes that carry no doctors.
const (
	MessageNotUnderstood = "I couldn't understand your request. Could you please describe your symptoms and location again?"
	MessageNoLocation    = "I couldn't tell where you are looking for a doctor. Which city or neighborhood should I search in?"
	MessageNoDoctors     = "I couldn't find any doctors matching your request. Could you provide more details or try a nearby location?"
	MessageUnavailable   = "I'm sorry, I couldn't reach the doctor search service right now. Please try again in a moment."
	MessageInternal      = "I'm sorry, I encountered an error. Please try again."
)

// Assistant runs the pipeline for one utterance and records the outcome
// in the session. Every error becomes an assistant turn; none ends the session.
type Assistant struct {
	Parser medimatch.IntentParser
	Finder medimatch.DoctorFinder

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewAssistant creates an Assistant.
func NewAssistant(parser medimatch.IntentParser, finder medimatch.DoctorFinder) *Assistant {
	return &Assistant{Parser: parser, Finder: finder}
}

// Greet appends the opening assistant message to the session.
func (a *Assistant) Greet(session *medimatch.Session) {
	session.AppendTurn(medimatch.ChatTurn{
		Role:      medimatch.RoleAssistant,
		Text:      Greeting,
		Timestamp: a.now(),
	})
}

// Handle records the utterance, runs the pipeline and commits the reply.
// The returned bool is false when a newer utterance superseded this run,
// in which case the reply was discarded.
func (a *Assistant) Handle(ctx context.Context, session *medimatch.Session, utterance string) (medimatch.ChatTurn, bool) {
	ticket := a.Begin(session, utterance)
	return a.Complete(ctx, session, ticket, utterance)
}

// Begin records the utterance as a user turn and starts its run. Runs begun
// earlier are superseded from this point on.
func (a *Assistant) Begin(session *medimatch.Session, utterance string) medimatch.Ticket {
	return session.Begin(medimatch.ChatTurn{
		Role:      medimatch.RoleUser,
		Text:      strings.TrimSpace(utterance),
		Timestamp: a.now(),
	})
}

// Complete runs the pipeline for a run started with Begin and commits the
// reply if the run is still current.
func (a *Assistant) Complete(ctx context.Context, session *medimatch.Session, ticket medimatch.Ticket, utterance string) (medimatch.ChatTurn, bool) {
	reply := a.Reply(ctx, utterance)
	return reply, session.Commit(ticket, reply)
}

// Reply runs the pipeline without touching a session.
func (a *Assistant) Reply(ctx context.Context, utterance string) medimatch.ChatTurn {
	turn := medimatch.ChatTurn{Role: medimatch.RoleAssistant}

	q, err := a.Parser.ParseIntent(ctx, utterance)
	if err == nil {
		var doctors []medimatch.Doctor
		doctors, err = a.Finder.FindDoctors(ctx, q)
		if err == nil {
			turn.Text = FoundMessage(q, len(doctors))
			turn.Doctors = doctors
		}
	}
	if err != nil {
		turn.Text = ErrorMessage(err)
	}

	turn.Timestamp = a.now()
	return turn
}

// FoundMessage summarizes a successful search.
func FoundMessage(q medimatch.Query, n int) string {
	if n == 1 {
		return fmt.Sprintf("I found a %s in %s.", q.Specialty, q.Location)
	}
	return fmt.Sprintf("I found %d doctors for %s in %s.", n, q.Specialty, q.Location)
}

// ErrorMessage converts a pipeline error into the text of an assistant turn.
func ErrorMessage(err error) string {
	switch medimatch.Classify(err) {
	case medimatch.KindInput:
		if medimatch.ErrorCode(err) == medimatch.EMISSINGLOCATION {
			return MessageNoLocation
		}
		return MessageNotUnderstood
	case medimatch.KindEmpty:
		return MessageNoDoctors
	case medimatch.KindUpstream:
		return MessageUnavailable
	default:
		return MessageInternal
	}
}

func (a *Assistant) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now().UTC()
}
