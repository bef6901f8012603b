package telegram

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cast"

	"leaf-bot/internal/domain/entity"
)

// maxMessageLen задаёт лимит Telegram на длину текста сообщения.
const maxMessageLen = 4096

// maxCaptionLen задаёт лимит Telegram на подпись к фото.
const maxCaptionLen = 1024

// detectionTable строит таблицу детекций: класс, уверенность и геометрия.
func detectionTable(dets []entity.Detection) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"class", "confidence", "x", "y", "width", "height"})
	for _, d := range dets {
		t.AppendRow(table.Row{d.Class, confidence(d.Confidence, d.HasConfidence), num(d.X), num(d.Y), num(d.Width), num(d.Height)})
	}
	return t.Render()
}

// classificationTable строит таблицу оценок; дополнительные поля идут колонками по алфавиту.
func classificationTable(cls []entity.Classification) string {
	extra := map[string]struct{}{}
	for _, c := range cls {
		for k := range c.Extra {
			extra[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	header := table.Row{"class", "confidence"}
	for _, k := range keys {
		header = append(header, k)
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	for _, c := range cls {
		row := table.Row{c.Class, confidence(c.Score, c.HasScore)}
		for _, k := range keys {
			v, ok := c.Extra[k]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, cast.ToString(v))
		}
		t.AppendRow(row)
	}
	return t.Render()
}

// rawJSON форматирует ответ сервиса как есть.
func rawJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// pre оборачивает текст в <pre> для ParseMode HTML.
func pre(s string) string {
	return "<pre>" + html.EscapeString(s) + "</pre>"
}

// errorText превращает ошибку запуска в сообщение пользователю.
func errorText(err error) string {
	var cfgErr *entity.ConfigError
	var httpErr *entity.HTTPError
	switch {
	case errors.As(err, &cfgErr):
		return html.EscapeString(configMessage(cfgErr))
	case errors.As(err, &httpErr):
		return fmt.Sprintf("⚠️ HTTP error: %d\n%s", httpErr.StatusCode, pre(truncate(httpErr.Body, maxMessageLen-64)))
	}
	return "⚠️ Unexpected error: " + html.EscapeString(err.Error())
}

func configMessage(err *entity.ConfigError) string {
	switch err.Field {
	case entity.FieldAPIKey:
		return "⚠️ Не задан API-ключ Roboflow (ROBOFLOW_API_KEY)."
	case entity.FieldModelID:
		return "⚠️ Не задана модель. Укажите её командой /model workspace/project/version."
	case entity.FieldImage:
		return "⚠️ Пожалуйста, отправьте изображение."
	case entity.FieldTask:
		return "⚠️ Тип задачи должен быть auto, detection или classification."
	}
	return "⚠️ " + err.Error()
}

func confidence(v float64, ok bool) string {
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// truncate обрезает строку до n байт, не разрывая UTF-8 символы.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n - len("…")
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimRight(s[:cut], " ") + "…"
}
