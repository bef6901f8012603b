package telegram

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"leaf-bot/internal/container"
	"leaf-bot/internal/domain/entity"
	"leaf-bot/internal/infrastructure/vision"
)

const (
	msgStart = `👋 Привет! Я бот для распознавания болезней растений.

📸 Отправьте мне фото листа, и я передам его модели Roboflow.

📋 Команды:
/model — выбрать модель (workspace/project/version)
/task — тип задачи: auto, detection, classification
/settings — текущие настройки
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Задайте модель: /model your-workspace/plant-disease/1
2️⃣ При необходимости укажите тип: /task classification
3️⃣ Отправьте фото (jpg или png, можно файлом)
4️⃣ Для детекции придёт фото с рамками и таблица, для классификации — таблица оценок и рекомендация

💡 Модель можно найти в Roboflow: Deploy → Hosted API.`

	msgAwaitingModel  = "✏️ Отправьте идентификатор модели в формате workspace/project/version."
	msgModelSaved     = "✅ Модель сохранена: %s"
	msgTaskSaved      = "✅ Тип задачи: %s"
	msgCancelled      = "❌ Операция отменена."
	msgSendPhoto      = "📸 Пожалуйста, отправьте фото листа."
	msgUnknownCommand = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing     = "⏳ Отправляю изображение в Roboflow..."
	msgNoDetections   = "✅ Объекты не обнаружены."
	msgDownloadError  = "⚠️ Не удалось скачать изображение. Попробуйте ещё раз."
	msgSettings       = "⚙️ Модель: %s\nТип задачи: %s"
	msgDefault        = "по умолчанию"
)

// annotatedQuality задаёт качество JPEG для фото с рамками.
const annotatedQuality = 90

// Bot представляет Telegram-бота
type Bot struct {
	api *tgbotapi.BotAPI
	app *container.Container
}

// NewBot создаёт нового бота
func NewBot(token string, app *container.Container) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Info().Str("account", api.Self.UserName).Msg("authorized on telegram")

	return &Bot{
		api: api,
		app: app,
	}, nil
}

// Run запускает основной цикл обработки сообщений до отмены контекста
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	user, err := b.app.UserService.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		log.Err(err).Int64("user", msg.From.ID).Msg("get user")
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	// Обработка фото и изображений, отправленных файлом
	if fileID, ok := imageFileID(msg); ok {
		b.handleImage(ctx, msg, fileID)
		return
	}

	if user.State == entity.StateAwaitingModelID && strings.TrimSpace(msg.Text) != "" {
		b.setModel(ctx, msg, msg.Text)
		return
	}

	// Текстовое сообщение (не команда)
	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	users := b.app.UserService
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		if _, err := users.Cancel(ctx, msg.From.ID, msg.Chat.ID); err != nil {
			log.Err(err).Msg("reset user state")
		}
		b.sendMessage(msg.Chat.ID, msgStart)

	case "help":
		b.sendMessage(msg.Chat.ID, msgHelp)

	case "model":
		if args != "" {
			b.setModel(ctx, msg, args)
			return
		}
		if _, err := users.BeginModelInput(ctx, msg.From.ID, msg.Chat.ID); err != nil {
			log.Err(err).Msg("begin model input")
			return
		}
		b.sendMessage(msg.Chat.ID, msgAwaitingModel)

	case "task":
		user, err := users.SetTask(ctx, msg.From.ID, msg.Chat.ID, args)
		if err != nil {
			b.sendHTML(msg.Chat.ID, errorText(err))
			return
		}
		b.sendMessage(msg.Chat.ID, fmt.Sprintf(msgTaskSaved, user.Task))

	case "settings":
		user, err := users.Get(ctx, msg.From.ID, msg.Chat.ID)
		if err != nil {
			log.Err(err).Msg("get user")
			return
		}
		b.sendMessage(msg.Chat.ID, fmt.Sprintf(msgSettings, orDefault(user.ModelID), orDefault(string(user.Task))))

	case "cancel":
		if _, err := users.Cancel(ctx, msg.From.ID, msg.Chat.ID); err != nil {
			log.Err(err).Msg("cancel")
		}
		b.sendMessage(msg.Chat.ID, msgCancelled)

	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
	}
}

func (b *Bot) setModel(ctx context.Context, msg *tgbotapi.Message, modelID string) {
	modelID = strings.Trim(strings.TrimSpace(modelID), "/")
	if _, err := b.app.UserService.SetModel(ctx, msg.From.ID, msg.Chat.ID, modelID); err != nil {
		log.Err(err).Msg("set model")
		return
	}
	b.sendMessage(msg.Chat.ID, fmt.Sprintf(msgModelSaved, modelID))
}

// handleImage скачивает изображение, запускает инференс и отправляет результат
func (b *Bot) handleImage(ctx context.Context, msg *tgbotapi.Message, fileID string) {
	b.sendMessage(msg.Chat.ID, msgProcessing)

	imageData, err := b.downloadFile(ctx, fileID)
	if err != nil {
		log.Err(err).Msg("download photo")
		b.sendMessage(msg.Chat.ID, msgDownloadError)
		return
	}

	log.Debug().Int("bytes", len(imageData)).Int64("user", msg.From.ID).Msg("received image")

	out, err := b.app.InferenceService.RunForUser(ctx, msg.From.ID, msg.Chat.ID, imageData)
	if err != nil {
		log.Err(err).Int64("user", msg.From.ID).Msg("inference")
		b.sendHTML(msg.Chat.ID, errorText(err))
		return
	}

	b.sendResult(msg.Chat.ID, out)
}

// sendResult отправляет результат в зависимости от режима ответа
func (b *Bot) sendResult(chatID int64, out *entity.InferenceOutput) {
	result := out.Result

	switch result.Mode {
	case entity.ModeDetection:
		dets := result.Detections()
		if len(dets) == 0 {
			b.sendMessage(chatID, msgNoDetections)
			return
		}
		data, err := vision.JPEGBytes(out.Annotated, annotatedQuality)
		if err != nil {
			log.Err(err).Msg("encode annotated image")
			b.sendHTML(chatID, errorText(err))
			return
		}
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "detections.jpg", Bytes: data})
		photo.Caption = truncate(fmt.Sprintf("Detections: %d", len(dets)), maxCaptionLen)
		if _, err := b.api.Send(photo); err != nil {
			log.Err(err).Msg("send photo")
		}
		b.sendHTML(chatID, pre(truncate(detectionTable(dets), maxMessageLen-16)))

	case entity.ModeClassification:
		text := "<b>Classification Scores</b>\n" + pre(truncate(classificationTable(result.Classifications()), maxMessageLen-256))
		if out.Advice != nil {
			text += fmt.Sprintf("\nDisease: <b>%s</b>\nTreatment: %s",
				html.EscapeString(orUnknown(out.Advice.Label)), html.EscapeString(out.Advice.Treatment))
		}
		b.sendHTML(chatID, text)

	default:
		b.sendHTML(chatID, pre(truncate(rawJSON(result.Raw), maxMessageLen-16)))
	}
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	fileURL := file.Link(b.api.Token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Err(err).Msg("send message")
	}
}

// sendHTML отправляет сообщение с разметкой HTML
func (b *Bot) sendHTML(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		log.Err(err).Msg("send message")
	}
}

// imageFileID возвращает файл наибольшего фото или изображение, отправленное документом
func imageFileID(msg *tgbotapi.Message) (string, bool) {
	if len(msg.Photo) > 0 {
		return msg.Photo[len(msg.Photo)-1].FileID, true
	}
	if msg.Document != nil {
		switch msg.Document.MimeType {
		case "image/jpeg", "image/png":
			return msg.Document.FileID, true
		}
	}
	return "", false
}

func orDefault(s string) string {
	if s == "" {
		return msgDefault
	}
	return s
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
