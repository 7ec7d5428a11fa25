package bot

import (
	"fmt"
	"strings"

	"github.com/Vodeneev/keibabot/internal/pkg/models"
)

const (
	cmdToday = "今日のレース"
	cmdOdds  = "レース情報へ"
	cmdHelp  = "使い方"

	racesTitle = "今日のレース"
	oddsTitle  = "レース情報（netkeiba）"

	racesFooter = "※タップで印"
	oddsFooter  = "※外部サイトへ移動します"

	helpText = "【使い方】\n・今日のレース → ウマセン一覧\n・レース情報へ → netkeibaオッズ\n・スラッグ直送もOK"

	textFetchFailed = "取得失敗"
	textNoLinks     = "リンク生成失敗"

	payloadRace = "race"
	payloadText = "text"

	maxLabelRunes = 20
	maxOddsLinks  = 10
)

// homeQuickReplies is attached to every reply
func homeQuickReplies() []Item {
	return []Item{
		{Label: cmdToday, Action: ActionSendText, Value: cmdToday},
		{Label: cmdOdds, Action: ActionSendText, Value: cmdOdds},
		{Label: cmdHelp, Action: ActionSendText, Value: cmdHelp},
	}
}

func textMessage(text string) Message {
	return Message{Kind: KindText, Text: text, QuickReplies: homeQuickReplies()}
}

func helpMessage() Message {
	return textMessage(helpText)
}

func marksMessage(slug string, rows []models.MarkRow) Message {
	var sb strings.Builder
	sb.WriteString("【ウマセン予想】\n")
	sb.WriteString(slug)
	sb.WriteString("\n\n")
	for i, r := range rows {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(r.String())
	}
	return textMessage(sb.String())
}

func marksFailedMessage(slug string) Message {
	return textMessage(textFetchFailed + "：" + slug)
}

// racesCard lists races as buttons that request their marks
func racesCard(races []models.RaceRef) Message {
	items := make([]Item, 0, len(races))
	for _, r := range races {
		items = append(items, Item{
			Label:  truncateRunes(r.DisplayName, maxLabelRunes),
			Action: ActionSendPayload,
			Value:  payloadRace + "=" + r.Slug,
		})
	}
	return Message{Kind: KindCard, Title: racesTitle, Items: items}
}

// oddsLink is one resolved race ready for the odds card.
// venue and raceNumber are zero when the descriptor lacked them.
type oddsLink struct {
	venue      string
	raceNumber int
	name       string
	url        string
}

func (l oddsLink) label() string {
	if l.venue == "" || l.raceNumber == 0 {
		return truncateRunes(l.name, maxLabelRunes)
	}
	return truncateRunes(fmt.Sprintf("%s%dR %s", l.venue, l.raceNumber, l.name), maxLabelRunes)
}

func oddsCard(links []oddsLink) Message {
	if len(links) > maxOddsLinks {
		links = links[:maxOddsLinks]
	}
	items := make([]Item, 0, len(links))
	for _, l := range links {
		items = append(items, Item{Label: l.label(), Action: ActionOpenURL, Value: l.url})
	}
	return Message{Kind: KindCard, Title: oddsTitle, Items: items}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
