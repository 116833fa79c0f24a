package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/scythe504/triplay-backend/internal"
)

// questionNamespace derives stable ids so seeding the same file twice does
// not duplicate questions.
var questionNamespace = uuid.MustParse("6f1c8f9e-3a0b-4d5e-9b7a-2c4d6e8f0a1b")

// ReadQuestionsFile loads a question bank from a CSV file.
func ReadQuestionsFile(filePath string) ([]*internal.Question, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("unable to read input file %s: %w", filePath, err)
	}
	defer f.Close()

	return ReadQuestionsCsv(f)
}

// ReadQuestionsCsv parses rows of type,category,text[,options] where options
// are separated by "|". A header row starting with "type" is skipped, as are
// malformed rows.
func ReadQuestionsCsv(r io.Reader) ([]*internal.Question, error) {
	csvReader := csv.NewReader(r)
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("unable to parse questions as CSV: %w", err)
	}

	var questions []*internal.Question
	for i, record := range records {
		if i == 0 && len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "type") {
			continue
		}
		if len(record) < 3 {
			log.Println("Skipping invalid record: ", record)
			continue
		}

		mode := internal.GameMode(strings.TrimSpace(record[0]))
		if !mode.Valid() {
			log.Println("Invalid question type:", record[0], "in record", record)
			continue
		}
		category := strings.TrimSpace(record[1])
		text := strings.TrimSpace(record[2])
		if text == "" {
			log.Println("Skipping question without text: ", record)
			continue
		}

		var options []string
		if len(record) > 3 && strings.TrimSpace(record[3]) != "" {
			for _, opt := range strings.Split(record[3], "|") {
				if opt = strings.TrimSpace(opt); opt != "" {
					options = append(options, opt)
				}
			}
		}

		questions = append(questions, &internal.Question{
			Id:       uuid.NewSHA1(questionNamespace, []byte(string(mode)+"\x00"+category+"\x00"+text)).String(),
			Text:     text,
			Type:     mode,
			Category: category,
			Options:  options,
		})
	}

	return questions, nil
}
