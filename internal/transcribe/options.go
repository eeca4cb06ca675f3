package transcribe

import "whisper-xxl-gui/internal/domain"

// Menu tables for the run form. Labels are shown verbatim in the UI; tokens
// are passed verbatim to faster-whisper-xxl.
var (
	Languages = domain.OptionSet{
		Name:    "language",
		Flag:    "--language",
		Default: "Japonés",
		Options: []domain.Option{
			{Label: "Japonés", Token: "Japanese"},
			{Label: "Inglés", Token: "English"},
			{Label: "Español", Token: "Spanish"},
			{Label: "Francés", Token: "French"},
			{Label: "Alemán", Token: "German"},
			{Label: "Chino", Token: "Chinese"},
		},
	}

	Models = domain.OptionSet{
		Name:    "model",
		Flag:    "--model",
		Default: "Mediano",
		Options: []domain.Option{
			{Label: "Pequeño", Token: "small", Description: "Rápido, calidad básica."},
			{Label: "Mediano", Token: "medium", Description: "Equilibrio entre velocidad y calidad."},
			{Label: "Grande", Token: "large", Description: "Máxima calidad, requiere GPU."},
			{Label: "Turbo", Token: "turbo", Description: "Variante rápida del modelo grande."},
		},
	}

	Formats = domain.OptionSet{
		Name:    "output_format",
		Flag:    "--output_format",
		Default: "txt",
		Options: []domain.Option{
			{Label: "txt", Token: "txt"},
			{Label: "srt", Token: "srt"},
			{Label: "json", Token: "json"},
			{Label: "vtt", Token: "vtt"},
			{Label: "Todos", Token: "all"},
		},
	}

	Tasks = domain.OptionSet{
		Name:    "task",
		Flag:    "--task",
		Default: "Transcribir",
		Options: []domain.Option{
			{Label: "Transcribir", Token: "transcribe"},
			{Label: "Traducir", Token: "translate"},
		},
	}
)

// Catalog returns every run-form menu.
func Catalog() domain.OptionCatalog {
	return domain.OptionCatalog{
		Languages: Languages,
		Models:    Models,
		Formats:   Formats,
		Tasks:     Tasks,
	}
}
