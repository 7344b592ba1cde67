// Package seed загружает начальные данные маркетплейса из YAML-файла.
package seed

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mmeshcher/baloot-market/internal/model"
)

// Load читает набор данных из файла.
func Load(path string) (*model.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode читает набор данных из r. Неизвестные поля считаются ошибкой.
func Decode(r io.Reader) (*model.Dataset, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var data model.Dataset
	if err := dec.Decode(&data); err != nil {
		if err == io.EOF {
			return &data, nil
		}
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return &data, nil
}
