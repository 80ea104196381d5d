package main

import (
	"fmt"
	"math"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const maxDetails = 6

func escHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// confidenceBar renders a percentage as ten cells.
func confidenceBar(pct float64) string {
	filled := int(math.Round(pct / 10))
	filled = max(0, min(filled, 10))
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", 10-filled) + "]"
}

func FormatResult(r *AnalysisResult, sourceLabel string) string {
	emoji, label := "🟢", "REAL NEWS"
	if r.IsFake() {
		emoji, label = "🔴", "FAKE NEWS"
	}

	var b strings.Builder

	// Source label (for forwarded messages)
	if sourceLabel != "" {
		b.WriteString(fmt.Sprintf("📢 <b>Source:</b> %s\n", sourceLabel))
	}

	b.WriteString(fmt.Sprintf("%s <b>%s</b>\n", emoji, label))
	b.WriteString(fmt.Sprintf("<code>%s</code> confidence %.2f%%\n", confidenceBar(r.Confidence), r.Confidence))
	b.WriteString(fmt.Sprintf("fake %.2f%% · real %.2f%%\n", r.FakeProbability, r.RealProbability))

	if len(r.Details) > 0 {
		b.WriteString("\n🔍 <b>Signals:</b>\n")
		for _, d := range r.Details[:min(len(r.Details), maxDetails)] {
			b.WriteString(fmt.Sprintf("• %s\n", escHTML(d)))
		}
	}

	if r.SourceURL != "" {
		b.WriteString(fmt.Sprintf("\n🔗 %s\n", escHTML(r.SourceURL)))
	}

	return strings.TrimRight(b.String(), "\n")
}

func FormatProgress(events []string) string {
	if len(events) == 0 {
		return "⏳ <b>Analyzing...</b>"
	}
	last := events[len(events)-1]
	spinner := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	sp := spinner[len(events)%len(spinner)]
	return fmt.Sprintf("%s <b>Analyzing...</b>\n\n<code>%s</code>", sp, escHTML(last))
}

func GetResultKeyboard(shareURL, reScanData string) tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	if shareURL != "" {
		row = append(row, tgbotapi.NewInlineKeyboardButtonURL("🔗 Share", shareURL))
	}
	if reScanData != "" {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("🔄 Re-check", "rescan:"+reScanData))
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
