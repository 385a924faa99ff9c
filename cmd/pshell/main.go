// (c) 2024 Carl Kingsford <carlk@cs.cmu.edu>.
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"monogrammedchalk.com/pshell/editor"
	"monogrammedchalk.com/pshell/history"
	"monogrammedchalk.com/pshell/internal/config"
	"monogrammedchalk.com/pshell/internal/shlog"
	"monogrammedchalk.com/pshell/lexer"
	"monogrammedchalk.com/pshell/pipeline"
)

const prompt = "$ "

func main() {
	os.Exit(run())
}

func run() int {
	env, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	log := shlog.New(os.Stderr, env.Debug, env.NoColor)
	pipeline.Logger = log
	lexer.Logger = log
	hist := history.New()

	if env.HistFile != "" {
		if err := hist.Load(env.HistFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn("failed to load history file", "path", env.HistFile, "error", err)
		}
	}

	ed := editor.New(os.Stdin, os.Stdout, hist, prompt)

	for {
		line, err := ed.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Error(err.Error())
			break
		}

		if line != "" {
			hist.Add(line)
		}

		pl, err := lexer.Lex(line)
		if err != nil {
			log.Error(err.Error())
			continue
		}

		result, err := pipeline.Run(pl, hist)
		if err != nil {
			log.Error(err.Error())
			continue
		}
		if result.ShouldExit {
			flushHistory(hist, env, log)
			return result.Code
		}
	}

	flushHistory(hist, env, log)
	return 0
}

func flushHistory(hist *history.History, env *config.Env, log *slog.Logger) {
	if env.HistFile == "" {
		return
	}
	if err := hist.Save(env.HistFile, env.HistSize); err != nil {
		log.Error("failed to save history", "path", env.HistFile, "error", err)
	}
}
