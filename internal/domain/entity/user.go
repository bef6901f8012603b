package entity

// UserState состояние пользователя в диалоге
type UserState string

const (
	StateMainMenu        UserState = "main_menu"         // В главном меню
	StateAwaitingModelID UserState = "awaiting_model_id" // Ожидание идентификатора модели
	StateProcessing      UserState = "processing"        // Обработка изображения
)

// User представляет пользователя бота и его настройки модели
type User struct {
	ID      int64     // Telegram User ID
	ChatID  int64     // Telegram Chat ID
	State   UserState // Текущее состояние пользователя
	ModelID string    // workspace/project/version, если пусто, берётся значение по умолчанию
	Task    TaskType  // Подсказка о типе модели, если пусто, берётся значение по умолчанию
}

// NewUser создаёт нового пользователя с начальным состоянием
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:     userID,
		ChatID: chatID,
		State:  StateMainMenu,
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
}

// SetModel запоминает модель пользователя
func (u *User) SetModel(modelID string) {
	u.ModelID = modelID
}

// SetTask запоминает тип задачи
func (u *User) SetTask(task TaskType) {
	u.Task = task
}
