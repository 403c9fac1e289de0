package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"topic-rag/internal/app"
	"topic-rag/internal/config"
)

const usage = `Usage: ragctl [flags] <command> [args]

Commands:
  topics                                 list topics
  create-topic <name> <description>      register a topic
  delete-topic <name>                    remove a topic, its files and its index
  describe-topic <name>                  print a topic description
  set-description <name> <description>   update a topic description
  upload <topic> <path>                  upload a document or image
  files <topic>                          list uploaded files with embed status
  embed <topic> <file>...                index uploaded files
  unembed <topic> <file>                 drop a file from the index
  delete-files <topic> <file>...         remove files from disk and index
  query <question>                       ask a question
  history                                print the conversation
  clear                                  reset the conversation

Flags:
`

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	topicsFlag := flag.String("topics", "", "comma-separated topics to query, bypassing topic selection")
	noFallback := flag.Bool("no-fallback", false, "decline instead of answering from general knowledge")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).With().Caller().Logger()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start")
	}
	defer a.Close()

	if err := run(ctx, a, args, *topicsFlag, *noFallback); err != nil {
		log.Fatal().Err(err).Str("command", args[0]).Msg("command failed")
	}
}

func run(ctx context.Context, a *app.App, args []string, topicsFlag string, noFallback bool) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "topics":
		topics, err := a.ListTopics(ctx)
		if err != nil {
			return err
		}
		for _, t := range topics {
			fmt.Println(t)
		}
		return nil

	case "create-topic":
		if len(rest) < 2 {
			return fmt.Errorf("usage: create-topic <name> <description>")
		}
		return a.CreateTopic(ctx, rest[0], strings.Join(rest[1:], " "))

	case "delete-topic":
		if len(rest) != 1 {
			return fmt.Errorf("usage: delete-topic <name>")
		}
		return a.DeleteTopic(ctx, rest[0])

	case "describe-topic":
		if len(rest) != 1 {
			return fmt.Errorf("usage: describe-topic <name>")
		}
		desc, err := a.TopicDescription(ctx, rest[0])
		if err != nil {
			return err
		}
		fmt.Println(desc)
		return nil

	case "set-description":
		if len(rest) < 2 {
			return fmt.Errorf("usage: set-description <name> <description>")
		}
		return a.UpdateTopicDescription(ctx, rest[0], strings.Join(rest[1:], " "))

	case "upload":
		if len(rest) != 2 {
			return fmt.Errorf("usage: upload <topic> <path>")
		}
		f, err := os.Open(rest[1])
		if err != nil {
			return err
		}
		defer f.Close()
		docDir, err := a.UploadFile(ctx, rest[0], filepath.Base(rest[1]), f)
		if err != nil {
			return err
		}
		fmt.Println(docDir)
		return nil

	case "files":
		if len(rest) != 1 {
			return fmt.Errorf("usage: files <topic>")
		}
		infos, err := a.ListFiles(ctx, rest[0])
		if err != nil {
			return err
		}
		for _, info := range infos {
			status := "not embedded"
			if info.Embedded {
				status = "embedded"
			}
			fmt.Printf("%s\t%s\n", info.Name, status)
		}
		return nil

	case "embed":
		if len(rest) < 2 {
			return fmt.Errorf("usage: embed <topic> <file>...")
		}
		texts, images, err := a.EmbedFiles(ctx, rest[0], rest[1:])
		if err != nil {
			return err
		}
		fmt.Printf("embedded %d text chunks and %d images\n", texts, images)
		return nil

	case "unembed":
		if len(rest) != 2 {
			return fmt.Errorf("usage: unembed <topic> <file>")
		}
		return a.UnembedFile(ctx, rest[0], rest[1])

	case "delete-files":
		if len(rest) < 2 {
			return fmt.Errorf("usage: delete-files <topic> <file>...")
		}
		return a.DeleteFiles(ctx, rest[0], rest[1:])

	case "query":
		if len(rest) == 0 {
			return fmt.Errorf("usage: query <question>")
		}
		var topics []string
		if topicsFlag != "" {
			for _, t := range strings.Split(topicsFlag, ",") {
				if t = strings.TrimSpace(t); t != "" {
					topics = append(topics, t)
				}
			}
		}
		answer, err := a.Query(ctx, strings.Join(rest, " "), topics, !noFallback)
		if err != nil {
			return err
		}
		fmt.Println(answer)
		return nil

	case "history":
		for _, m := range a.History() {
			fmt.Printf("%s: %s\n", m.Role, m.Content)
		}
		return nil

	case "clear":
		a.ClearHistory()
		return nil

	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}
