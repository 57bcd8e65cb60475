package services

import (
	"fmt"
	"sort"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeBot struct {
	mu    sync.Mutex
	wg    sync.WaitGroup
	chats []int64
	text  []string
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	defer b.wg.Done()
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, fmt.Errorf("unexpected %T", c)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chats = append(b.chats, msg.ChatID)
	b.text = append(b.text, msg.Text)
	return tgbotapi.Message{}, nil
}

func TestTelegramAlertFansOut(t *testing.T) {
	bot := &fakeBot{}
	tn := &TelegramNotifier{bot: bot, chatIDs: []int64{11, 22}}

	bot.wg.Add(2)
	tn.Alert("Payment received: order_1")
	bot.wg.Wait()

	sort.Slice(bot.chats, func(i, j int) bool { return bot.chats[i] < bot.chats[j] })
	if len(bot.chats) != 2 || bot.chats[0] != 11 || bot.chats[1] != 22 {
		t.Fatalf("chats = %v", bot.chats)
	}
	if bot.text[0] != "Payment received: order_1" {
		t.Errorf("text = %q", bot.text[0])
	}
}

func TestTelegramNilNotifier(t *testing.T) {
	var tn *TelegramNotifier
	tn.Alert("ignored")
}
