package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yuanying/epubbook/internal/epub"
	"github.com/yuanying/epubbook/internal/plaintext"
	"golang.org/x/text/language"
)

const (
	defaultLanguage      = "en"
	defaultJPEGQuality   = 85
	defaultMaxImageWidth = 0
	defaultLogLevel      = "info"
	defaultLogFormat     = "text"
)

type buildOptions struct {
	SourceDir  string
	OutputPath string
	Title      string
	Author     string
	Language   string
	Cover      string
	Export     epub.ExportOptions
}

type textOptions struct {
	InputPath  string
	OutputPath string
	Format     string
	SortOrder  bool
	Logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "epubbook",
		Short: "Build, inspect and unpack EPUB books",
		Long: `epubbook assembles EPUB 2 books from a directory of chapter files,
reads books it produced back into chapters, and writes plain-text or
markdown archives of their contents.`,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.String("log-level", defaultLogLevel, "Log level: debug, info, warn, error")
	pf.String("log-format", defaultLogFormat, "Log format: text, json")
	pf.BoolP("verbose", "v", false, "Shorthand for --log-level debug")

	cmd.AddCommand(newBuildCmd(), newInfoCmd(), newTextCmd())
	return cmd
}

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <source-dir>",
		Short: "Build an EPUB from a directory of chapter files",
		Long: `Every .html, .xhtml and .txt file in the source directory becomes a
chapter, in file name order. A leading number in the file name ("01-Intro.txt")
is dropped from the chapter title. Image files become assets.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readBuildOptions(cmd, args)
			if err != nil {
				return err
			}
			return runBuild(opts)
		},
	}

	f := cmd.Flags()
	f.StringP("output", "o", "", "Output file path (default: <source-dir>.epub)")
	f.String("title", "", "Book title (default: source directory name)")
	f.String("author", "", "Book author")
	f.String("language", defaultLanguage, "Book language as a BCP 47 tag")
	f.String("cover", "", "Image file name to use as cover (default: an image named cover.*)")
	f.String("identifier", "", "dc:identifier (default: a fresh urn:uuid)")
	f.Int("quality", defaultJPEGQuality, "JPEG quality for resized images (1-100)")
	f.Int("max-image-width", defaultMaxImageWidth, "Downscale images wider than this; 0 keeps them as-is")
	return cmd
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file.epub>",
		Short: "Print the metadata and chapters of an EPUB",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := readLogger(cmd)
			if err != nil {
				return err
			}
			return runInfo(cmd.OutOrStdout(), args[0], logger)
		},
	}
}

func newTextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "text <file.epub>",
		Short: "Write the chapters of an EPUB as a plain-text archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readTextOptions(cmd, args)
			if err != nil {
				return err
			}
			return runText(opts)
		},
	}

	f := cmd.Flags()
	f.StringP("output", "o", "", "Output file path (default: input with .zip extension)")
	f.String("format", plaintext.FormatText, "Chapter file format: txt, md")
	f.Bool("sort", false, "Order chapters by their number instead of archive order")
	return cmd
}

func readBuildOptions(cmd *cobra.Command, args []string) (buildOptions, error) {
	sourceDir := args[0]
	f := cmd.Flags()

	logger, err := readLogger(cmd)
	if err != nil {
		return buildOptions{}, err
	}

	outputPath, _ := f.GetString("output")
	if outputPath == "" {
		outputPath = defaultOutputPath(sourceDir, "epub")
	}
	title, _ := f.GetString("title")
	if title == "" {
		title = filepath.Base(filepath.Clean(sourceDir))
	}
	author, _ := f.GetString("author")
	cover, _ := f.GetString("cover")
	identifier, _ := f.GetString("identifier")

	lang, _ := f.GetString("language")
	tag, err := language.Parse(lang)
	if err != nil {
		return buildOptions{}, fmt.Errorf("invalid --language %q: %w", lang, err)
	}

	quality, _ := f.GetInt("quality")
	if quality < 1 || quality > 100 {
		return buildOptions{}, fmt.Errorf("invalid --quality %d: must be between 1 and 100", quality)
	}
	maxWidth, _ := f.GetInt("max-image-width")
	if maxWidth < 0 {
		return buildOptions{}, fmt.Errorf("invalid --max-image-width %d: must not be negative", maxWidth)
	}

	return buildOptions{
		SourceDir:  sourceDir,
		OutputPath: outputPath,
		Title:      title,
		Author:     author,
		Language:   tag.String(),
		Cover:      cover,
		Export: epub.ExportOptions{
			Logger:        logger,
			MaxImageWidth: maxWidth,
			JPEGQuality:   quality,
			Identifier:    identifier,
		},
	}, nil
}

func readTextOptions(cmd *cobra.Command, args []string) (textOptions, error) {
	f := cmd.Flags()

	logger, err := readLogger(cmd)
	if err != nil {
		return textOptions{}, err
	}

	format, _ := f.GetString("format")
	format = strings.ToLower(format)
	if format != plaintext.FormatText && format != plaintext.FormatMarkdown {
		return textOptions{}, fmt.Errorf("invalid --format %q: must be txt or md", format)
	}

	outputPath, _ := f.GetString("output")
	if outputPath == "" {
		outputPath = defaultOutputPath(args[0], "zip")
	}
	sortOrder, _ := f.GetBool("sort")

	return textOptions{
		InputPath:  args[0],
		OutputPath: outputPath,
		Format:     format,
		SortOrder:  sortOrder,
		Logger:     logger,
	}, nil
}

// readLogger builds the logger from the persistent logging flags.
func readLogger(cmd *cobra.Command) (*slog.Logger, error) {
	f := cmd.Flags()
	level, _ := f.GetString("log-level")
	format, _ := f.GetString("log-format")
	verbose, _ := f.GetBool("verbose")

	level = strings.ToLower(level)
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid --log-level %q: must be debug, info, warn or error", level)
	}
	format = strings.ToLower(format)
	if format != "text" && format != "json" {
		return nil, fmt.Errorf("invalid --log-format %q: must be text or json", format)
	}
	if verbose {
		level = "debug"
	}

	return buildLogger(cmd.ErrOrStderr(), level, format), nil
}

func buildLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: lvl}
	if strings.ToLower(format) == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

func defaultOutputPath(inputPath, ext string) string {
	inputPath = strings.TrimSuffix(inputPath, string(filepath.Separator))
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + "." + ext
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
