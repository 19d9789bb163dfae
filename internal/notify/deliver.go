package notify

import (
	"context"
	"fmt"
)

// maxBlocksPerMessage — ограничение Slack на число блоков в сообщении.
const maxBlocksPerMessage = 50

// Тексты сообщений.
const (
	TextNoNew        = "No new upcoming hearings"
	TextUpcoming     = "New upcoming hearings:"
	TextLastBatch    = "Last posted hearings:"
	TextChanged      = "Changed hearings:"
	textDailyPattern = "New upcoming hearings on %s"
)

// DailyText — текст сообщения дня.
func DailyText(date string) string {
	return fmt.Sprintf(textDailyPattern, date)
}

// PostDaily публикует одно сообщение на каждый день дайджеста.
// Пустой дайджест — одно сообщение emptyText без блоков.
// Возвращает количество опубликованных сообщений.
func PostDaily(ctx context.Context, p Poster, channel string, d Digest, emptyText string) (int, error) {
	if d.Len() == 0 {
		if err := p.PostMessage(ctx, channel, emptyText, nil); err != nil {
			return 0, fmt.Errorf("публикация пустого уведомления: %w", err)
		}
		return 1, nil
	}

	for i, m := range d {
		if err := p.PostMessage(ctx, channel, DailyText(m.Date), m.Blocks); err != nil {
			return i, fmt.Errorf("публикация уведомления за %s: %w", m.Date, err)
		}
	}
	return d.Len(), nil
}

// PostCombined публикует все дни дайджеста под общим текстом.
// Блоки делятся на сообщения по maxBlocksPerMessage, день не разрывается.
// Пустой дайджест ничего не публикует.
func PostCombined(ctx context.Context, p Poster, channel, text string, d Digest) (int, error) {
	var (
		sent  int
		batch []Block
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := p.PostMessage(ctx, channel, text, batch); err != nil {
			return fmt.Errorf("публикация уведомления %q: %w", text, err)
		}
		sent++
		batch = nil
		return nil
	}

	for _, m := range d {
		if len(batch)+len(m.Blocks) > maxBlocksPerMessage {
			if err := flush(); err != nil {
				return sent, err
			}
		}
		batch = append(batch, m.Blocks...)
	}
	if err := flush(); err != nil {
		return sent, err
	}
	return sent, nil
}
