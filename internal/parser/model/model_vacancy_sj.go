package model

import "encoding/json"

// SuperJobResponse представляет ответ от API SuperJob
type SuperJobResponse struct {
	Objects []json.RawMessage `json:"objects"`
	Total   int               `json:"total"`
	More    bool              `json:"more"`
}

// SJVacancy представляет вакансию SuperJob. Ноль в payment_* означает "не указано"
type SJVacancy struct {
	ID              int    `json:"id"`
	Profession      string `json:"profession"`
	FirmName        string `json:"firm_name"`
	PaymentFrom     int    `json:"payment_from"`
	PaymentTo       int    `json:"payment_to"`
	Currency        string `json:"currency"`
	Link            string `json:"link"`
	DatePublished   int64  `json:"date_published"` // unix seconds
	VacancyRichText string `json:"vacancyRichText"`
	Candidat        string `json:"candidat"`
	Town            *Town  `json:"town"`
}

type Town struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}
