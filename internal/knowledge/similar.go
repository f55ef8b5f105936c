package knowledge

// Resolution is a past ticket resolution offered when a user asks for more
// help. The lookup is mocked: a fixed list stands in for a real search over
// resolved tickets.
type Resolution struct {
	ID       int    `json:"id"`
	Problem  string `json:"problem"`
	Solution string `json:"solution"`
	Status   string `json:"status"`
}

// SimilarResolutions returns resolutions similar to the given problem.
func (b *Base) SimilarResolutions(problem string) []Resolution {
	return []Resolution{
		{ID: 123, Problem: "Не работает доступ", Solution: "Обновить права доступа", Status: "решено"},
		{ID: 456, Problem: "Ошибка при входе", Solution: "Очистить кэш браузера", Status: "решено"},
		{ID: 789, Problem: "Медленная работа", Solution: "Проверить сетевое подключение", Status: "в работе"},
	}
}
