package knowledge

// Entry is a static knowledge-base record pairing canonical question text
// and keywords with a prewritten answer. The table is read-only within the
// core; it can be replaced wholesale from a JSON file (see LoadFile).
type Entry struct {
	ID            int      `json:"id"`
	Question      string   `json:"question"`
	ShortQuestion string   `json:"short_question"`
	Answer        string   `json:"answer"`
	Category      string   `json:"category"`
	Priority      string   `json:"priority"`
	Keywords      []string `json:"keywords"`
}

// DefaultEntries returns the built-in FAQ table.
func DefaultEntries() []Entry {
	return []Entry{
		{
			ID:            1,
			Question:      "🔐 Не работает доступ к системе",
			ShortQuestion: "🔐 Доступ к системе",
			Answer: `Проблемы с доступом к системе.

Для восстановления доступа:
1. Проверьте корректность логина/пароля
2. Убедитесь, что аккаунт активен (не заблокирован)
3. Используйте кнопку "Восстановить доступ" в корпоративном портале
4. Если не помогло — обратитесь к администратору домена

Время решения: 15-30 минут.
Если проблема не решена за 30 минут — создайте обращение.`,
			Category: "access",
			Priority: "high",
			Keywords: []string{"доступ", "войти", "логин", "пароль", "авторизация"},
		},
		{
			ID:            2,
			Question:      "💻 Ошибка при входе в сервис",
			ShortQuestion: "💻 Ошибка при входе",
			Answer: `Ошибки при входе в сервис.

Решение:
1. Очистите кэш браузера
2. Попробуйте другой браузер
3. Перезагрузите компьютер
4. Проверьте подключение к корпоративной сети
5. Убедитесь, что сервис не на техническом обслуживании

Если проблема не решена — создайте обращение.`,
			Category: "technical",
			Priority: "medium",
			Keywords: []string{"ошибка", "вход", "сервис", "браузер", "кэш"},
		},
		{
			ID:            3,
			Question:      "📊 Не формируется отчет",
			ShortQuestion: "📊 Формирование отчета",
			Answer: `Проблемы с формированием отчетов.

Действия:
1. Проверьте заполнение всех обязательных полей
2. Убедитесь в наличии прав на данный раздел
3. Проверьте подключение к БД отчетности
4. Подождите 15 минут (в часы пик возможны задержки)
5. Попробуйте сформировать отчет в другое время

Если отчет не формируется более 30 минут — обратитесь в поддержку.`,
			Category: "reports",
			Priority: "medium",
			Keywords: []string{"отчет", "формирование", "аналитика", "данные", "выгрузка"},
		},
		{
			ID:            4,
			Question:      "⚡ Медленная работа системы",
			ShortQuestion: "⚡ Медленная работа",
			Answer: `Медленная работа приложений.

Ускорение работы:
1. Закройте неиспользуемые вкладки и программы
2. Проверьте скорость интернета
3. Обновите браузер до последней версии
4. Очистите временные файлы системы
5. Проверьте обновления операционной системы

Для постоянных проблем требуется диагностика сети — обратитесь в ИТ-отдел.`,
			Category: "performance",
			Priority: "low",
			Keywords: []string{"медленно", "тормозит", "зависает", "скорость", "производительность"},
		},
		{
			ID:            5,
			Question:      "📧 Проблемы с корпоративной почтой",
			ShortQuestion: "📧 Корпоративная почта",
			Answer: `Проблемы с корпоративной почтой.

Решение:
1. Проверьте настройки SMTP сервера
2. Убедитесь, что не превышена квота почтового ящика
3. Для мобильного доступа настройте клиент Outlook
4. Проверьте работу на web-версии
5. Убедитесь, что пароль не истек

При проблемах с отправкой или получением — создайте обращение.`,
			Category: "email",
			Priority: "medium",
			Keywords: []string{"почта", "email", "письмо", "outlook", "отправка"},
		},
		{
			ID:            6,
			Question:      "🔄 Сброс пароля",
			ShortQuestion: "🔄 Сброс пароля",
			Answer: `Сброс пароля учетной записи.

Процедура сброса:
1. Перейдите на портал самообслуживания
2. Нажмите "Забыли пароль?"
3. Введите корпоративный email
4. Проверьте почту и перейдите по ссылке
5. Установите новый пароль (минимум 12 символов)

Требования к паролю: заглавные и строчные буквы, цифры и специальные
символы, не использовать предыдущие 5 паролей.

Если не получается — обратитесь к администратору.`,
			Category: "security",
			Priority: "medium",
			Keywords: []string{"пароль", "сброс", "учетная запись", "восстановление"},
		},
	}
}
