package model

import "encoding/json"

// SearchResponse представляет ответ от API HH.ru.
// Элементы разбираются по одному, чтобы битая вакансия не ломала всю страницу
type SearchResponse struct {
	Items []json.RawMessage `json:"items"`
	Found int               `json:"found"`
	Pages int               `json:"pages"`
	Page  int               `json:"page"`
}

// HHVacancy представляет структуру вакансии с HH.ru
type HHVacancy struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Salary       *Salary   `json:"salary"`
	Employer     *Employer `json:"employer"`
	Area         *Area     `json:"area"`
	AlternateURL string    `json:"alternate_url"`
	PublishedAt  string    `json:"published_at"`
	Snippet      *Snippet  `json:"snippet"`
}

// Salary представляет информацию о зарплате, границы могут быть null
type Salary struct {
	From     *int   `json:"from"`
	To       *int   `json:"to"`
	Currency string `json:"currency"`
	Gross    bool   `json:"gross"`
}

// Employer представляет информацию о работодателе
type Employer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Area представляет информацию о местоположении
type Area struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Snippet - краткие требования и обязанности, HH отдаёт их с HTML подсветкой
type Snippet struct {
	Requirement    string `json:"requirement"`
	Responsibility string `json:"responsibility"`
}
