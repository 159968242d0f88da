package config

import "time"

// Neo4jConfig - подключение к графовому хранилищу вакансий
type Neo4jConfig struct {
	URI            string
	Username       string
	Password       string
	Database       string
	ConnectTimeout time.Duration
}

func NewNeo4jConfigFromEnv() (*Neo4jConfig, error) {
	var r envReader
	cfg := &Neo4jConfig{
		URI:            r.required("NEO4J_URI"),
		Username:       r.required("NEO4J_USER"),
		Password:       r.required("NEO4J_PASSWORD"),
		Database:       getEnvWithDefault("NEO4J_DATABASE", "neo4j"),
		ConnectTimeout: r.asDuration("NEO4J_CONNECT_TIMEOUT", 5*time.Second, time.Second, time.Minute),
	}
	if err := r.err(); err != nil {
		return nil, err
	}
	return cfg, nil
}
