package services

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/venue-system/models"
)

func TestBulkEventEmailDedupesRecipients(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	ev := env.store.addEvent(openEvent(nil, true))

	_, err := env.signups.SubmitSignup(ctx, signupFor(ev.ID, "amy",
		models.AdditionalParticipant{Name: "Ben", Email: "ben@example.com"},
		models.AdditionalParticipant{Email: "AMY@example.com"},
	), "10.2.0.1")
	require.NoError(t, err)
	dup := signupFor(ev.ID, "ben")
	dup.Email = "Ben@Example.com"
	_, err = env.signups.SubmitSignup(ctx, dup, "10.2.0.1")
	require.NoError(t, err)

	before := len(env.mailer.messages())
	n, err := env.notifier.BulkEventEmail(ctx, ev.ID, BulkEmailInput{Subject: "Parking", Message: "Use the rear lot.\nThanks!"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	msgs := env.mailer.messages()
	require.Len(t, msgs, before+1)
	bulk := msgs[len(msgs)-1]
	assert.Equal(t, []string{testAdminEmail}, bulk.To)
	assert.Equal(t, []string{"amy@example.com", "ben@example.com"}, bulk.Bcc)
	assert.Equal(t, "[Friday Darts League] Parking", bulk.Subject)
	assert.Contains(t, bulk.Text, "Use the rear lot.")
	assert.Contains(t, bulk.HTML, "Use the rear lot.")
}

func TestBulkEventEmailErrors(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	ev := env.store.addEvent(openEvent(nil, true))

	_, err := env.notifier.BulkEventEmail(ctx, ev.ID, BulkEmailInput{Subject: "", Message: "x"})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = env.notifier.BulkEventEmail(ctx, "ev-404", BulkEmailInput{Subject: "s", Message: "m"})
	assert.ErrorIs(t, err, ErrEventNotFound)

	_, err = env.notifier.BulkEventEmail(ctx, ev.ID, BulkEmailInput{Subject: "s", Message: "m"})
	assert.ErrorIs(t, err, ErrNoRecipients)

	_, err = env.signups.SubmitSignup(ctx, signupFor(ev.ID, "cody"), "10.2.0.2")
	require.NoError(t, err)
	env.mailer.failFor = map[string]error{testAdminEmail: errors.New("relay refused")}
	_, err = env.notifier.BulkEventEmail(ctx, ev.ID, BulkEmailInput{Subject: "s", Message: "m"})
	assert.ErrorIs(t, err, ErrMailFailed)
}

func TestSignupConfirmationWithDate(t *testing.T) {
	env := newTestEnv(nil)
	date := time.Date(2026, 4, 17, 19, 0, 0, 0, time.UTC)
	event := &models.Event{Title: "Spring Open", EventDate: &date}
	signup := &models.Signup{Name: "Dana", Email: "dana@example.com"}

	require.NoError(t, env.notifier.SignupConfirmation(context.Background(), event, signup))
	msgs := env.mailer.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "Friday, April 17, 2026")
	assert.Contains(t, msgs[0].Text, "Location: TBD")
	assert.Contains(t, msgs[0].HTML, "Dana")
}

func TestContactSubmit(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()

	err := env.contact.Submit(ctx, ContactInput{Name: "E", Email: "bad", Message: "short"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)

	require.NoError(t, env.contact.Submit(ctx, ContactInput{
		Name:    "Eli",
		Email:   "eli@example.com",
		Message: "Do you host private parties?",
	}))
	msgs := env.mailer.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"eli@example.com"}, msgs[0].To)
	assert.Equal(t, []string{testAdminEmail}, msgs[0].Bcc)
	assert.Equal(t, "Thank you for contacting JAX , Eli!", msgs[0].Subject)
	assert.Contains(t, msgs[0].Text, "Do you host private parties?")

	env.mailer.failFor = map[string]error{"eli@example.com": errors.New("mailbox full")}
	err = env.contact.Submit(ctx, ContactInput{Name: "Eli", Email: "eli@example.com", Message: "Second message here"})
	assert.ErrorIs(t, err, ErrMailFailed)
}

func TestBuildMIMEMessage(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	raw, err := buildMIMEMessage("JAX <noreply@jax.test>", Message{
		To:      []string{"fay@example.com"},
		Bcc:     []string{"hidden@example.com"},
		Subject: "Регистрация подтверждена",
		Text:    "plain body",
		HTML:    "<p>html body</p>",
	}, now)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hidden@example.com")

	msg, err := mail.ReadMessage(strings.NewReader(string(raw)))
	require.NoError(t, err)
	assert.Equal(t, "fay@example.com", msg.Header.Get("To"))
	assert.True(t, strings.HasSuffix(msg.Header.Get("Message-ID"), "@jax.test>"))

	subject, err := new(mime.WordDecoder).DecodeHeader(msg.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "Регистрация подтверждена", subject)

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/alternative", mediaType)

	mr := multipart.NewReader(msg.Body, params["boundary"])
	var bodies []string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		b, err := io.ReadAll(part)
		require.NoError(t, err)
		bodies = append(bodies, string(b))
	}
	assert.Equal(t, []string{"plain body", "<p>html body</p>"}, bodies)
}
