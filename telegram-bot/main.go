package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"news-verifier/logger"
)

const (
	analysisTimeout = 3 * time.Minute
	editInterval    = 2 * time.Second
	// Telegram caps callback data at 64 bytes.
	maxCallbackData = 60
)

var (
	apiBase string
	bot     *tgbotapi.BotAPI

	runs = newRunTracker()

	// Re-check payloads too long for callback data (chat:msg → request)
	historyMu sync.Mutex
	history   = map[string]analyzeRequest{}
)

func main() {
	// In Docker env vars are injected via env_file and godotenv is a no-op.
	// Locally: try the root project .env first, then a local one.
	if os.Getenv("TELEGRAM_TOKEN") == "" {
		if err := godotenv.Load("../.env"); err != nil {
			_ = godotenv.Load()
		}
	}
	logger.Init(os.Getenv("LOG_LEVEL"))

	token := os.Getenv("TELEGRAM_TOKEN")
	if token == "" {
		slog.Error("[bot] TELEGRAM_TOKEN is not set")
		os.Exit(1)
	}

	apiBase = strings.TrimRight(os.Getenv("API_BASE"), "/")
	if apiBase == "" {
		apiBase = "http://localhost:5000"
	}

	var err error
	bot, err = tgbotapi.NewBotAPI(token)
	if err != nil {
		slog.Error("[bot] init failed", "error", err)
		os.Exit(1)
	}

	slog.Info("[bot] started", "user", "@"+bot.Self.UserName, "api", apiBase)

	if webhookURL := os.Getenv("WEBHOOK_URL"); webhookURL != "" {
		runWebhook(webhookURL)
	} else {
		runPolling()
	}
}

// ── Polling mode (dev / no public URL) ───────────────────────────

func runPolling() {
	// Remove any previously registered webhook
	if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: false}); err != nil {
		slog.Warn("[bot] DeleteWebhook failed", "error", err)
	}

	slog.Info("[bot] mode: POLLING")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	dispatch(bot.GetUpdatesChan(u))
}

// ── Webhook mode (production) ─────────────────────────────────────

func runWebhook(baseURL string) {
	port := os.Getenv("WEBHOOK_PORT")
	if port == "" {
		port = "8443"
	}

	// Path contains bot token and acts as the secret
	path := "/" + bot.Token
	fullURL := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(fullURL)
	if err != nil {
		slog.Error("[bot] NewWebhook failed", "error", err)
		os.Exit(1)
	}
	if _, err := bot.Request(wh); err != nil {
		slog.Error("[bot] setting webhook failed", "error", err)
		os.Exit(1)
	}

	info, err := bot.GetWebhookInfo()
	if err != nil {
		slog.Error("[bot] GetWebhookInfo failed", "error", err)
		os.Exit(1)
	}
	if info.LastErrorDate != 0 {
		slog.Warn("[bot] ⚠ last webhook error", "message", info.LastErrorMessage)
	}

	slog.Info("[bot] mode: WEBHOOK", "port", port)

	updates := bot.ListenForWebhook(path)

	go func() {
		if err := http.ListenAndServe(":"+port, nil); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("[bot] webhook server failed", "error", err)
			os.Exit(1)
		}
	}()

	dispatch(updates)
}

func dispatch(updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		if update.Message != nil {
			go handleMessage(update.Message)
		} else if update.CallbackQuery != nil {
			go handleCallback(update.CallbackQuery)
		}
	}
}

// ── Message handler ──────────────────────────────────────────────

func handleMessage(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if msg.ForwardFromChat != nil || msg.ForwardFrom != nil {
		handleForwarded(msg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	switch text {
	case "/start":
		send(chatID, startText())
		return
	case "/help":
		send(chatID, helpText())
		return
	case "/cancel":
		if runs.cancel(chatID) {
			send(chatID, "⛔ Analysis cancelled.")
		} else {
			send(chatID, "Nothing to cancel.")
		}
		return
	}

	startAnalysisForChat(chatID, newRequest(text), "")
}

// ── Forwarded message handler ─────────────────────────────────────

func handleForwarded(msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		text = strings.TrimSpace(msg.Caption)
	}

	req := newRequest(text)
	if u := firstLink(msg, text); u != "" && len([]rune(text)) < minForwardedRunes {
		// a short post around a link is a pointer to the article
		req = analyzeRequest{URL: u}
	}
	if req.URL == "" && req.Text == "" {
		send(msg.Chat.ID, "🤷 The forwarded message has no text or link to check.")
		return
	}

	startAnalysisForChat(msg.Chat.ID, req, forwardSource(msg))
}

const minForwardedRunes = 280

func firstLink(msg *tgbotapi.Message, text string) string {
	for _, e := range append(msg.Entities, msg.CaptionEntities...) {
		if e.Type != "url" && e.Type != "text_link" {
			continue
		}
		if e.URL != "" {
			return e.URL
		}
		runes := []rune(text)
		if e.Offset+e.Length <= len(runes) {
			if u := string(runes[e.Offset : e.Offset+e.Length]); isURL(u) {
				return u
			}
		}
	}
	return ""
}

// forwardSource returns an HTML label of where a forwarded message came from.
func forwardSource(msg *tgbotapi.Message) string {
	var name, link string
	switch {
	case msg.ForwardFromChat != nil:
		name = msg.ForwardFromChat.Title
		if msg.ForwardFromChat.UserName != "" {
			link = "https://t.me/" + msg.ForwardFromChat.UserName
		}
	case msg.ForwardFrom != nil:
		u := msg.ForwardFrom
		if u.UserName != "" {
			name = "@" + u.UserName
			link = "https://t.me/" + u.UserName
		} else {
			name = strings.TrimSpace(u.FirstName + " " + u.LastName)
		}
	default:
		name = msg.ForwardSenderName
	}

	switch {
	case name == "":
		return ""
	case link != "":
		return fmt.Sprintf("<a href=\"%s\">%s</a>", link, escHTML(name))
	default:
		return escHTML(name)
	}
}

// ── Shared analysis starter ───────────────────────────────────────

func startAnalysisForChat(chatID int64, req analyzeRequest, sourceLabel string) {
	initText := "⏳ <b>Analyzing...</b>"
	if sourceLabel != "" {
		initText += "\n📢 Source: " + sourceLabel
	}

	initMsg := sendAndGet(chatID, initText)
	if initMsg == nil {
		return
	}
	launch(chatID, initMsg.MessageID, req, sourceLabel)
}

func launch(chatID int64, msgID int, req analyzeRequest, sourceLabel string) {
	ctx, done := runs.start(chatID, analysisTimeout)
	go func() {
		defer done()
		runAnalysis(ctx, chatID, msgID, req, sourceLabel)
	}()
}

// ── Analysis runner ──────────────────────────────────────────────

func runAnalysis(ctx context.Context, chatID int64, msgID int, req analyzeRequest, sourceLabel string) {
	var (
		progressLines []string
		lastEdit      time.Time
		finalResult   *AnalysisResult
		analysisErr   string
	)

	reScanData := rescanKey(chatID, msgID, req)

	err := StreamAnalyze(ctx, apiBase, req, func(ev SSEEvent) {
		switch ev.Type {
		case "start", "progress":
			progressLines = append(progressLines, ev.Data)
			if time.Since(lastEdit) >= editInterval {
				edit(chatID, msgID, FormatProgress(progressLines))
				lastEdit = time.Now()
			}
		case "result":
			r, parseErr := ParseResult(ev.Data)
			if parseErr == nil {
				finalResult = r
			}
		case "error":
			analysisErr = ev.Data
		}
	})

	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return
	case finalResult != nil:
		editWithKeyboard(chatID, msgID, FormatResult(finalResult, sourceLabel),
			GetResultKeyboard(ShareURL(apiBase, finalResult), reScanData))
	case analysisErr != "":
		edit(chatID, msgID, "❌ <b>Analysis failed:</b>\n<code>"+escHTML(analysisErr)+"</code>")
	case err != nil:
		edit(chatID, msgID, "❌ <b>API unreachable:</b>\n<code>"+escHTML(err.Error())+"</code>")
	default:
		edit(chatID, msgID, "⚠️ Analysis finished without a result.")
	}
}

// rescanKey returns callback data able to rebuild req, inline when it fits.
func rescanKey(chatID int64, msgID int, req analyzeRequest) string {
	if b, err := json.Marshal(req); err == nil && len(b) <= maxCallbackData-len("rescan:") {
		return string(b)
	}
	key := fmt.Sprintf("%d:%d", chatID, msgID)
	historyMu.Lock()
	history[key] = req
	historyMu.Unlock()
	return "key:" + key
}

func rescanRequest(data string) (analyzeRequest, bool) {
	if key, ok := strings.CutPrefix(data, "key:"); ok {
		historyMu.Lock()
		defer historyMu.Unlock()
		req, found := history[key]
		return req, found
	}
	var req analyzeRequest
	if err := json.Unmarshal([]byte(data), &req); err != nil || (req.URL == "" && req.Text == "") {
		return req, false
	}
	return req, true
}

// ── Callback handler ─────────────────────────────────────────────

func handleCallback(cb *tgbotapi.CallbackQuery) {
	data, ok := strings.CutPrefix(cb.Data, "rescan:")
	if !ok || cb.Message == nil {
		return
	}

	req, found := rescanRequest(data)
	if !found {
		request(tgbotapi.NewCallback(cb.ID, "❌ Nothing to re-check"))
		return
	}

	request(tgbotapi.NewCallback(cb.ID, "🔄 Re-checking..."))

	chatID := cb.Message.Chat.ID
	msgID := cb.Message.MessageID
	edit(chatID, msgID, "⏳ <b>Analyzing... (again)</b>")
	launch(chatID, msgID, req, "")
}

// ── Telegram helpers ─────────────────────────────────────────────

func request(c tgbotapi.Chattable) {
	if _, err := bot.Request(c); err != nil {
		slog.Warn("[bot] request error", "error", err)
	}
}

func send(chatID int64, text string) {
	sendAndGet(chatID, text)
}

func sendAndGet(chatID int64, text string) *tgbotapi.Message {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	sent, err := bot.Send(msg)
	if err != nil {
		slog.Warn("[bot] send error", "chat", chatID, "error", err)
		return nil
	}
	return &sent
}

func edit(chatID int64, msgID int, text string) {
	cfg := tgbotapi.NewEditMessageText(chatID, msgID, text)
	cfg.ParseMode = tgbotapi.ModeHTML
	cfg.DisableWebPagePreview = true
	if _, err := bot.Send(cfg); err != nil {
		slog.Warn("[bot] edit error", "chat", chatID, "error", err)
	}
}

func editWithKeyboard(chatID int64, msgID int, text string, kb tgbotapi.InlineKeyboardMarkup) {
	cfg := tgbotapi.NewEditMessageText(chatID, msgID, text)
	cfg.ParseMode = tgbotapi.ModeHTML
	cfg.DisableWebPagePreview = true
	if len(kb.InlineKeyboard) > 0 {
		cfg.ReplyMarkup = &kb
	}
	if _, err := bot.Send(cfg); err != nil {
		slog.Warn("[bot] edit error", "chat", chatID, "error", err)
	}
}

// ── Texts ────────────────────────────────────────────────────────

func startText() string {
	return `🔍 <b>News Verifier Bot</b>

I estimate whether a news story is <b>fake or real</b> from a language model, the tone of the text and published fact-checks.

<b>How to use:</b>
• Send an article <b>URL</b>
• Paste the news <b>text</b>
• <b>Forward</b> a post from a channel

<b>Commands:</b>
/cancel - stop the current analysis
/help - help`
}

func helpText() string {
	return `📖 <b>Help</b>

<b>Check an article:</b>
<code>https://example.com/article</code>

<b>Check a text:</b> paste it as a message.

<b>The result shows:</b>
• Verdict (fake / real)
• Confidence and probabilities
• The signals behind the verdict

<b>Commands:</b>
/cancel - stop the analysis
/start - main menu`
}
