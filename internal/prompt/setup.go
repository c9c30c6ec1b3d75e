package prompt

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lvcoi/ytbatch/internal/media"
)

// RequiredURL must appear in every accepted URL.
const RequiredURL = "https://"

const urlUsage = "Enter the URLs. Type 'csv' to read URLs from csv file. Press F to finish."

// checkURL returns the normalized form of raw, or why it cannot be used.
func checkURL(raw string) (string, error) {
	if !strings.Contains(raw, RequiredURL) {
		return "", fmt.Errorf("it doesn't contain '%s'", RequiredURL)
	}
	return media.ValidateInputURL(raw)
}

func trimQuotes(s string) string {
	return strings.Trim(s, " \"'")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// OutputDir returns configured when it is an existing directory and asks
// for one otherwise.
func (p *Prompter) OutputDir(configured string) (string, error) {
	dir := configured
	if !isDir(dir) {
		if dir != "" {
			p.log.Warn().Msgf("Cannot be accessed: '%s'", dir)
		}
		fmt.Fprintln(p.out, "Enter the directory path to save files. Relative paths can be used.")
		for {
			answer, err := p.ask("")
			if err != nil {
				return "", err
			}
			answer = trimQuotes(answer)
			if isDir(answer) {
				dir = answer
				break
			}
			p.log.Warn().Msgf("Cannot be accessed: '%s'", answer)
		}
	}
	p.log.Info().Msgf("'%s' is selected as the storage location.", dir)
	return dir, nil
}

// URLs collects URLs until the user finishes with "f". initial URLs (from
// the command line) are kept; when there are any the prompt is skipped.
func (p *Prompter) URLs(initial []string) ([]string, error) {
	urls := make([]string, 0, len(initial))
	for _, u := range initial {
		u = trimQuotes(u)
		checked, err := checkURL(u)
		if err != nil {
			p.log.Warn().Msgf("'%s' cannot be used: %v.", u, err)
			continue
		}
		urls = append(urls, checked)
	}
	if len(urls) > 0 {
		return urls, nil
	}

	fmt.Fprintln(p.out, urlUsage)
	for {
		answer, err := p.ask("")
		if err != nil {
			return nil, err
		}
		answer = trimQuotes(answer)
		switch {
		case strings.EqualFold(answer, "f"):
			if len(urls) >= 1 {
				return urls, nil
			}
			fmt.Fprintln(p.out, "Specify one or more URLs.")
		case strings.EqualFold(answer, "csv"):
			if urls, err = p.csvURLs(urls); err != nil {
				return nil, err
			}
			fmt.Fprintln(p.out, urlUsage)
		default:
			checked, err := checkURL(answer)
			if err != nil {
				fmt.Fprintf(p.out, "'%s' cannot be used: %v.\n", answer, err)
				continue
			}
			urls = append(urls, checked)
		}
	}
}

func (p *Prompter) csvURLs(urls []string) ([]string, error) {
	fmt.Fprintln(p.out, "Enter the path to the CSV file path.")
	for {
		answer, err := p.ask("")
		if err != nil {
			return nil, err
		}
		path := trimQuotes(answer)
		if !isFile(path) {
			fmt.Fprintf(p.out, "'%s' does not exist.\n", path)
			continue
		}
		f, err := os.Open(path)
		if err != nil {
			p.log.Warn().Err(err).Msgf("Cannot be accessed: '%s'", path)
			continue
		}
		read, err := p.readCSV(f, urls)
		f.Close()
		if err != nil {
			p.log.Warn().Err(err).Msgf("Failed to read '%s'.", path)
			continue
		}
		p.log.Info().Msg("Urls in the csv file was read.")
		return read, nil
	}
}

// readCSV appends every cell of r that contains RequiredURL. urls is left
// untouched on error.
func (p *Prompter) readCSV(r io.Reader, urls []string) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return urls, nil
		}
		if err != nil {
			return nil, err
		}
		for _, cell := range row {
			cell = strings.TrimSpace(cell)
			checked, err := checkURL(cell)
			if err != nil {
				p.log.Info().Msgf("'%s' cannot be used: %v.", cell, err)
				continue
			}
			urls = append(urls, checked)
			p.log.Debug().Msgf("Read url: '%s'", checked)
		}
	}
}
