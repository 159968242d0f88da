package config

// SupabaseConfig - проект Supabase и таблица вакансий в нём (доступ через PostgREST)
type SupabaseConfig struct {
	URL   string
	Key   string
	Table string
}

func NewSupabaseConfigFromEnv() (*SupabaseConfig, error) {
	var r envReader
	cfg := &SupabaseConfig{
		URL:   r.required("SUPABASE_URL"),
		Key:   r.required("SUPABASE_KEY"),
		Table: getEnvWithDefault("SUPABASE_VACANCY_TABLE", "vacancies"),
	}
	if err := r.err(); err != nil {
		return nil, err
	}
	return cfg, nil
}
