package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// универсальная функция загрузки конфига из .yml файла (используем дженерики)
// fn - функция конструктор конфига со значениями по умолчанию
func LoadYAMLConfig[T any](configPath string, fn func() *T) (*T, error) {
	// Вызываем переданную функцию-конструктор, в config будут значения по умолчанию.
	// Если файла нет или он пуст, у нас всё равно будет работоспособная конфигурация.
	config := fn()

	// пустой путь - сразу отдаём значения по умолчанию
	if configPath == "" {
		return config, nil
	}

	// файла нет - значения по умолчанию БЕЗ ошибки
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}

	// файл существует, но его не удалось прочитать или распарсить - возвращаем ошибку
	yamlFile, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", configPath, err)
	}

	// пробуем анмаршалить конфиг из yml файла поверх значений по умолчанию
	if err := yaml.Unmarshal(yamlFile, config); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", configPath, err)
	}

	return config, nil
}
