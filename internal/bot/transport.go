package bot

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"quizbot/internal/engine"
)

// teleTransport adapts a live telebot instance to the engine's
// transport interface. The bot is bound once at startup; every call
// before bind fails loudly instead of panicking.
type teleTransport struct {
	bot atomic.Pointer[tele.Bot]
}

func (t *teleTransport) bind(b *tele.Bot) {
	t.bot.Store(b)
}

func (t *teleTransport) live() (*tele.Bot, error) {
	b := t.bot.Load()
	if b == nil {
		return nil, fmt.Errorf("telegram transport is not bound yet")
	}
	return b, nil
}

func (t *teleTransport) Send(ctx context.Context, chatID int64, text string, markup engine.Markup) (int, error) {
	b, err := t.live()
	if err != nil {
		return 0, err
	}
	opts := []interface{}{&tele.SendOptions{ParseMode: tele.ModeHTML}}
	rm, err := teleMarkup(markup)
	if err != nil {
		return 0, err
	}
	if rm != nil {
		opts = append(opts, rm)
	}
	msg, err := b.Send(tele.ChatID(chatID), text, opts...)
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

func (t *teleTransport) Edit(ctx context.Context, chatID int64, msgID int, text string) error {
	b, err := t.live()
	if err != nil {
		return err
	}
	_, err = b.Edit(storedMessage(chatID, msgID), text, &tele.SendOptions{ParseMode: tele.ModeHTML})
	return err
}

func (t *teleTransport) Delete(ctx context.Context, chatID int64, msgID int) error {
	b, err := t.live()
	if err != nil {
		return err
	}
	return b.Delete(storedMessage(chatID, msgID))
}

func (t *teleTransport) SendQuizPoll(ctx context.Context, chatID int64, question string, options []string,
	correctOption, openSeconds int, explanation string) (string, error) {
	b, err := t.live()
	if err != nil {
		return "", err
	}
	poll := &tele.Poll{
		Type:          tele.PollQuiz,
		Question:      question,
		CorrectOption: correctOption,
		OpenPeriod:    openSeconds,
		Explanation:   explanation,
	}
	poll.AddOptions(options...)
	msg, err := b.Send(tele.ChatID(chatID), poll)
	if err != nil {
		return "", err
	}
	if msg.Poll == nil {
		return "", fmt.Errorf("poll send returned no poll payload")
	}
	return msg.Poll.ID, nil
}

func storedMessage(chatID int64, msgID int) tele.StoredMessage {
	return tele.StoredMessage{MessageID: strconv.Itoa(msgID), ChatID: chatID}
}
