// Package cli provides the command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/repodoc/internal/config"
	"github.com/temirov/repodoc/internal/generator"
	"github.com/temirov/repodoc/internal/githubapi"
	"github.com/temirov/repodoc/internal/output"
	"github.com/temirov/repodoc/internal/services/clipboard"
	"github.com/temirov/repodoc/internal/tokenizer"
	"github.com/temirov/repodoc/internal/types"
	"github.com/temirov/repodoc/internal/utils"
)

const (
	rootUse              = "repodoc"
	rootShortDescription = "repodoc command line interface"
	rootLongDescription  = `repodoc turns a GitHub repository into a single documentation file.
It lists the repository, builds its file tree, inlines its most important files, and renders
markdown or HTML. Use tree to print only the file structure and init to write a configuration file.`
	versionTemplate = "repodoc version: {{.Version}}\n"

	generateUse              = types.CommandGenerate + " <repository-url>"
	treeUse                  = types.CommandTree + " <repository-url>"
	initUse                  = "init"
	generateAlias            = "g"
	treeAlias                = "t"
	generateShortDescription = "generate repository documentation (" + generateAlias + ")"
	treeShortDescription     = "display the repository file tree (" + treeAlias + ")"
	initShortDescription     = "write a default configuration file"

	// generateLongDescription provides detailed help for the generate command.
	generateLongDescription = `Fetch a GitHub repository and render its documentation.
Use --format to select markdown or html, --output or --save to write the document to a file,
and --copy to place it on the clipboard.`
	// generateUsageExample demonstrates generate command usage.
	generateUsageExample = `  # Print markdown documentation
  repodoc generate https://github.com/spf13/cobra

  # Save HTML documentation limited to two directory levels
  repodoc generate --format html --max-depth 2 --save https://github.com/spf13/cobra

  # Skip test data and copy the result
  repodoc g -e "testdata/" --copy https://github.com/spf13/cobra`

	// treeLongDescription provides detailed help for the tree command.
	treeLongDescription = `List the files and directories of a GitHub repository.
Use --format to select raw or json output.`
	// treeUsageExample demonstrates tree command usage.
	treeUsageExample = `  # Render the tree as JSON
  repodoc tree --format json https://github.com/spf13/cobra

  # Exclude documentation
  repodoc t -e "*.md" https://github.com/spf13/cobra`

	verboseFlagName              = "verbose"
	configFlagName               = "config"
	formatFlagName               = "format"
	maxDepthFlagName             = "max-depth"
	ignoreFlagName               = "ignore"
	ignoreFlagShorthand          = "e"
	sourceIgnoreFlagName         = "source-ignore"
	noDefaultIgnoreFlagName      = "no-default-ignore"
	ignoreFileFlagName           = "ignore-file"
	contributorsFlagName         = "contributors"
	filesFlagName                = "files"
	tokensFlagName               = "tokens"
	modelFlagName                = "model"
	copyFlagName                 = "copy"
	outputFlagName               = "output"
	outputFlagShorthand          = "o"
	saveFlagName                 = "save"
	tokenFlagName                = "token"
	apiBaseFlagName              = "api-base"
	globalFlagName               = "global"
	forceFlagName                = "force"
	verboseFlagDescription       = "log debug messages"
	configFlagDescription        = "configuration file to use instead of " + utils.LocalConfigFileName
	documentFormatDescription    = "document format: markdown, md, or html"
	treeFormatDescription        = "tree format: raw or json"
	maxDepthFlagDescription      = "deepest directory level kept in the tree, -1 for unbounded"
	ignoreFlagDescription        = "exclude path pattern"
	sourceIgnoreFlagDescription  = "drop source lines matching pattern from inlined files"
	noDefaultIgnoreDescription   = "do not apply the built-in ignore patterns"
	ignoreFileFlagDescription    = "pattern file with [ignore] and [source] sections"
	contributorsFlagDescription  = "number of contributors to list, negative to omit"
	filesFlagDescription         = "number of important files to inline, negative to omit"
	tokensFlagDescription        = "report the token count of the document"
	modelFlagDescription         = "tokenizer model to use for token counting"
	copyFlagDescription          = "copy the document to the clipboard"
	outputFlagDescription        = "write the document to this path"
	saveFlagDescription          = "write the document to <repository>_docs.<extension>"
	tokenFlagDescription         = "GitHub token, overrides " + utils.GitHubTokenEnvironmentVariable
	apiBaseFlagDescription       = "GitHub API base URL"
	globalFlagDescription        = "write the global configuration under the home directory"
	forceFlagDescription         = "overwrite an existing configuration file"
	invalidTreeFormatMessage     = "invalid tree format '%s'"
	documentWrittenFormat        = "Documentation written to %s\n"
	configurationWrittenFormat   = "Configuration written to %s\n"
	tokenCountFormat             = "Tokens: %d (%s)\n"
	copiedToClipboardMessage     = "Documentation copied to clipboard"
	clipboardFailureFormat       = "failed to copy documentation to clipboard: %v"
	tokenizerFailureFormat       = "token counting disabled: %v"
	loggerInitializationFormat   = "initialize logger: %w"
	workingDirectoryErrorFormat  = "unable to determine working directory: %w"
	writeDocumentErrorFormat     = "write documentation to %s: %w"
	unauthenticatedNoticeMessage = "no GitHub token configured, requests are subject to the unauthenticated rate limit"
)

// dependencies holds the collaborators a command run needs.
type dependencies struct {
	stdout           io.Writer
	stderr           io.Writer
	workingDirectory string
	homeDirectory    string
	newService       func(settings config.GitHubConfiguration, logger *zap.Logger) (generator.RepositoryService, bool)
	newCounter       func(model string) (tokenizer.Counter, string, error)
	copier           clipboard.Copier
}

func defaultDependencies() dependencies {
	return dependencies{
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		newService: newGitHubService,
		newCounter: tokenizer.NewCounter,
		copier:     clipboard.NewService(),
	}
}

func newGitHubService(settings config.GitHubConfiguration, logger *zap.Logger) (generator.RepositoryService, bool) {
	client := githubapi.NewClient(logger).
		WithAPIBase(settings.APIBase).
		WithTimeout(settings.Timeout).
		WithUserAgent(rootUse + "/" + utils.GetApplicationVersion()).
		WithRequestRate(settings.RequestsPerSecond)
	if settings.Token.IsSet() {
		client = client.WithAuthorizationToken(settings.Token.Value())
	}
	if settings.Retries != nil {
		retry := githubapi.DefaultRetryConfig()
		retry.MaxRetries = *settings.Retries
		client = client.WithRetry(retry)
	}
	return client, client.Authenticated()
}

// runtimeState is populated by the root command before any subcommand runs.
type runtimeState struct {
	logger        *zap.Logger
	configuration config.ApplicationConfiguration
}

// Execute runs the repodoc application. An interrupt cancels in-flight requests.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	rootCommand := newRootCommand(defaultDependencies())
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))
	return rootCommand.ExecuteContext(ctx)
}

func newRootCommand(deps dependencies) *cobra.Command {
	var (
		verbose           bool
		configurationPath string
		state             runtimeState
	)

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		Version:       utils.GetApplicationVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			logger, loggerErr := utils.NewApplicationLogger(verbose)
			if loggerErr != nil {
				return fmt.Errorf(loggerInitializationFormat, loggerErr)
			}
			state.logger = logger
			if command.Name() == initUse {
				return nil
			}
			loaded, loadErr := config.LoadApplicationConfiguration(config.LoadOptions{
				WorkingDirectory: deps.workingDirectory,
				HomeDirectory:    deps.homeDirectory,
				ExplicitFilePath: configurationPath,
			})
			if loadErr != nil {
				return loadErr
			}
			state.configuration = loaded
			return nil
		},
		PersistentPostRun: func(command *cobra.Command, arguments []string) {
			if state.logger != nil {
				_ = state.logger.Sync()
			}
		},
	}
	rootCommand.SetOut(deps.stdout)
	rootCommand.SetErr(deps.stderr)
	rootCommand.SetVersionTemplate(versionTemplate)
	rootCommand.PersistentFlags().BoolVar(&verbose, verboseFlagName, false, verboseFlagDescription)
	rootCommand.PersistentFlags().StringVar(&configurationPath, configFlagName, "", configFlagDescription)
	rootCommand.AddCommand(
		createGenerateCommand(deps, &state),
		createTreeCommand(deps, &state),
		createInitCommand(deps),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// pathOptions stores the tree-shaping flags shared by generate and tree.
type pathOptions struct {
	maxDepth        string
	ignorePatterns  []string
	sourcePatterns  []string
	noDefaultIgnore *booleanFlag
	ignoreFile      string
}

// githubOptions stores the API access flags shared by generate and tree.
type githubOptions struct {
	token   string
	apiBase string
}

func addPathFlags(command *cobra.Command, options *pathOptions) {
	command.Flags().StringVar(&options.maxDepth, maxDepthFlagName, "", maxDepthFlagDescription)
	command.Flags().StringArrayVarP(&options.ignorePatterns, ignoreFlagName, ignoreFlagShorthand, nil, ignoreFlagDescription)
	command.Flags().StringArrayVar(&options.sourcePatterns, sourceIgnoreFlagName, nil, sourceIgnoreFlagDescription)
	command.Flags().StringVar(&options.ignoreFile, ignoreFileFlagName, "", ignoreFileFlagDescription)
	options.noDefaultIgnore = registerBooleanFlag(command.Flags(), noDefaultIgnoreFlagName, noDefaultIgnoreDescription)
}

func addGitHubFlags(command *cobra.Command, options *githubOptions) {
	command.Flags().StringVar(&options.token, tokenFlagName, "", tokenFlagDescription)
	command.Flags().StringVar(&options.apiBase, apiBaseFlagName, "", apiBaseFlagDescription)
}

// patternSet is the resolved pair of path and source-line patterns.
type patternSet struct {
	ignore []string
	source []string
}

// resolvePatterns merges built-in defaults, configuration, the pattern file, and flags in that order.
func resolvePatterns(options pathOptions, settings config.GenerateConfiguration, workingDirectory string) (patternSet, error) {
	patternFilePath := options.ignoreFile
	if patternFilePath == "" {
		patternFilePath = settings.IgnoreFile
	}
	if patternFilePath == "" {
		patternFilePath = utils.DefaultPatternFileName
	}
	if !filepath.IsAbs(patternFilePath) {
		patternFilePath = filepath.Join(workingDirectory, patternFilePath)
	}
	patternFile, loadErr := config.LoadPatternFile(patternFilePath)
	if loadErr != nil {
		return patternSet{}, loadErr
	}

	var defaultIgnore []string
	if !options.noDefaultIgnore.resolve(settings.NoDefaultIgnore, false) {
		defaultIgnore = config.DefaultIgnorePatterns()
	}
	return patternSet{
		ignore: utils.MergePatterns(defaultIgnore, settings.Ignore, patternFile.IgnorePatterns, options.ignorePatterns),
		source: utils.MergePatterns(config.DefaultSourceIgnorePatterns(), settings.SourceIgnore, patternFile.SourceIgnorePatterns, options.sourcePatterns),
	}, nil
}

func resolveMaxDepth(command *cobra.Command, options pathOptions, settings config.GenerateConfiguration) int {
	if command.Flags().Changed(maxDepthFlagName) {
		return config.ParseMaxDepth(options.maxDepth)
	}
	if settings.MaxDepth != nil {
		return *settings.MaxDepth
	}
	return config.DefaultMaxDepth
}

func resolveLimit(command *cobra.Command, flagName string, flagValue int, configured *int) int {
	if command.Flags().Changed(flagName) {
		return flagValue
	}
	if configured != nil {
		return *configured
	}
	return 0
}

func resolveGitHubSettings(options githubOptions, settings config.GitHubConfiguration) config.GitHubConfiguration {
	resolved := settings
	if options.token != "" {
		resolved.Token = config.Secret(options.token)
	}
	if options.apiBase != "" {
		resolved.APIBase = options.apiBase
	}
	return resolved
}

func resolveWorkingDirectory(deps dependencies) (string, error) {
	if deps.workingDirectory != "" {
		return deps.workingDirectory, nil
	}
	workingDirectory, workingDirectoryErr := os.Getwd()
	if workingDirectoryErr != nil {
		return "", fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryErr)
	}
	return workingDirectory, nil
}

func newConfiguredGenerator(deps dependencies, state *runtimeState, githubFlags githubOptions) (*generator.Generator, bool) {
	settings := resolveGitHubSettings(githubFlags, state.configuration.GitHub)
	service, authenticated := deps.newService(settings, state.logger)
	runner := generator.NewGenerator(service, state.logger)
	if settings.Pacing > 0 {
		runner = runner.WithPause(settings.Pacing)
	}
	if !authenticated {
		state.logger.Debug(unauthenticatedNoticeMessage)
	}
	return runner, authenticated
}

// createGenerateCommand returns the generate subcommand.
func createGenerateCommand(deps dependencies, state *runtimeState) *cobra.Command {
	var (
		pathConfiguration   pathOptions
		githubConfiguration githubOptions
		documentFormat      string
		contributorLimit    int
		fileLimit           int
		tokenModel          string
		outputPath          string
		tokensEnabled       *booleanFlag
		copyEnabled         *booleanFlag
		saveEnabled         *booleanFlag
	)

	generateCommand := &cobra.Command{
		Use:     generateUse,
		Aliases: []string{generateAlias},
		Short:   generateShortDescription,
		Long:    generateLongDescription,
		Example: generateUsageExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			settings := state.configuration.Generate
			workingDirectory, workingDirectoryErr := resolveWorkingDirectory(deps)
			if workingDirectoryErr != nil {
				return workingDirectoryErr
			}
			format := documentFormat
			if !command.Flags().Changed(formatFlagName) && settings.Format != "" {
				format = settings.Format
			}
			patterns, patternErr := resolvePatterns(pathConfiguration, settings, workingDirectory)
			if patternErr != nil {
				return patternErr
			}

			runner, authenticated := newConfiguredGenerator(deps, state, githubConfiguration)
			if tokensEnabled.resolve(settings.Tokens.Enabled, false) {
				model := tokenModel
				if !command.Flags().Changed(modelFlagName) && settings.Tokens.Model != "" {
					model = settings.Tokens.Model
				}
				counter, resolvedModel, counterErr := deps.newCounter(model)
				if counterErr != nil {
					writeWarning(deps.stderr, fmt.Sprintf(tokenizerFailureFormat, counterErr))
				} else {
					runner = runner.WithCounter(counter, resolvedModel)
				}
			}

			result, generateErr := runner.Generate(command.Context(), generator.Request{
				RepositoryURL:        arguments[0],
				Format:               format,
				IgnorePatterns:       patterns.ignore,
				SourceIgnorePatterns: patterns.source,
				MaxDepth:             resolveMaxDepth(command, pathConfiguration, settings),
				ContributorLimit:     resolveLimit(command, contributorsFlagName, contributorLimit, settings.Contributors),
				FileLimit:            resolveLimit(command, filesFlagName, fileLimit, settings.Files),
				Authenticated:        authenticated,
			})
			if generateErr != nil {
				return generateErr
			}
			return deliverDocument(deps, result, deliveryOptions{
				outputPath:    outputPath,
				save:          saveEnabled.resolve(settings.Save, false),
				copy:          copyEnabled.resolve(settings.Clipboard, false),
				reportTokens:  result.TokenModel != "",
				workDirectory: workingDirectory,
			})
		},
	}

	addPathFlags(generateCommand, &pathConfiguration)
	addGitHubFlags(generateCommand, &githubConfiguration)
	generateCommand.Flags().StringVar(&documentFormat, formatFlagName, config.DefaultFormat, documentFormatDescription)
	generateCommand.Flags().IntVar(&contributorLimit, contributorsFlagName, generator.DefaultContributorLimit, contributorsFlagDescription)
	generateCommand.Flags().IntVar(&fileLimit, filesFlagName, output.DefaultImportantFileLimit, filesFlagDescription)
	generateCommand.Flags().StringVar(&tokenModel, modelFlagName, tokenizer.DefaultModel, modelFlagDescription)
	generateCommand.Flags().StringVarP(&outputPath, outputFlagName, outputFlagShorthand, "", outputFlagDescription)
	tokensEnabled = registerBooleanFlag(generateCommand.Flags(), tokensFlagName, tokensFlagDescription)
	copyEnabled = registerBooleanFlag(generateCommand.Flags(), copyFlagName, copyFlagDescription)
	saveEnabled = registerBooleanFlag(generateCommand.Flags(), saveFlagName, saveFlagDescription)
	return generateCommand
}

type deliveryOptions struct {
	outputPath    string
	save          bool
	copy          bool
	reportTokens  bool
	workDirectory string
}

// deliverDocument prints or writes the document, then reports notices, tokens, and clipboard status on stderr.
func deliverDocument(deps dependencies, result generator.Result, options deliveryOptions) error {
	destination := options.outputPath
	if destination == "" && options.save {
		destination = result.FileName
	}
	if destination != "" {
		if !filepath.IsAbs(destination) {
			destination = filepath.Join(options.workDirectory, destination)
		}
		if writeErr := os.WriteFile(destination, []byte(result.Document), 0o644); writeErr != nil {
			return fmt.Errorf(writeDocumentErrorFormat, destination, writeErr)
		}
		fmt.Fprintf(deps.stderr, documentWrittenFormat, destination)
	} else {
		fmt.Fprintln(deps.stdout, result.Document)
	}

	writeNotices(deps.stderr, result.Notices)
	if options.reportTokens {
		fmt.Fprintf(deps.stderr, tokenCountFormat, result.Tokens, result.TokenModel)
	}
	if options.copy {
		if copyErr := deps.copier.Copy(result.Document); copyErr != nil {
			writeWarning(deps.stderr, fmt.Sprintf(clipboardFailureFormat, copyErr))
		} else {
			fmt.Fprintln(deps.stderr, copiedToClipboardMessage)
		}
	}
	return nil
}

// createTreeCommand returns the tree subcommand.
func createTreeCommand(deps dependencies, state *runtimeState) *cobra.Command {
	var (
		pathConfiguration   pathOptions
		githubConfiguration githubOptions
		treeFormat          string
	)

	treeCommand := &cobra.Command{
		Use:     treeUse,
		Aliases: []string{treeAlias},
		Short:   treeShortDescription,
		Long:    treeLongDescription,
		Example: treeUsageExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			normalizedFormat := strings.ToLower(strings.TrimSpace(treeFormat))
			if normalizedFormat != types.FormatRaw && normalizedFormat != types.FormatJSON {
				return fmt.Errorf(invalidTreeFormatMessage, treeFormat)
			}
			settings := state.configuration.Generate
			workingDirectory, workingDirectoryErr := resolveWorkingDirectory(deps)
			if workingDirectoryErr != nil {
				return workingDirectoryErr
			}
			patterns, patternErr := resolvePatterns(pathConfiguration, settings, workingDirectory)
			if patternErr != nil {
				return patternErr
			}
			runner, _ := newConfiguredGenerator(deps, state, githubConfiguration)
			result, buildErr := runner.BuildTree(command.Context(), generator.Request{
				RepositoryURL:  arguments[0],
				IgnorePatterns: patterns.ignore,
				MaxDepth:       resolveMaxDepth(command, pathConfiguration, settings),
			})
			if buildErr != nil {
				return buildErr
			}
			return writeTree(deps, normalizedFormat, result)
		},
	}

	addPathFlags(treeCommand, &pathConfiguration)
	addGitHubFlags(treeCommand, &githubConfiguration)
	treeCommand.Flags().StringVar(&treeFormat, formatFlagName, types.FormatRaw, treeFormatDescription)
	return treeCommand
}

func writeTree(deps dependencies, format string, result generator.Result) error {
	if format == types.FormatJSON {
		rendered, renderErr := output.RenderTreeJSON(result.Tree)
		if renderErr != nil {
			return renderErr
		}
		fmt.Fprintln(deps.stdout, rendered)
	} else {
		fmt.Fprintln(deps.stdout, result.Repository.Repository+"/")
		output.WriteTree(deps.stdout, result.Tree)
	}
	fmt.Fprintln(deps.stderr, output.FormatSummaryLine(result.Counts))
	writeNotices(deps.stderr, result.Notices)
	return nil
}

// createInitCommand returns the init subcommand.
func createInitCommand(deps dependencies) *cobra.Command {
	var (
		global bool
		force  bool
	)
	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			destination, initErr := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: deps.workingDirectory,
				HomeDirectory:    deps.homeDirectory,
			})
			if initErr != nil {
				return initErr
			}
			fmt.Fprintf(deps.stdout, configurationWrittenFormat, destination)
			return nil
		},
	}
	initCommand.Flags().BoolVar(&global, globalFlagName, false, globalFlagDescription)
	initCommand.Flags().BoolVar(&force, forceFlagName, false, forceFlagDescription)
	return initCommand
}

func writeNotices(writer io.Writer, notices []types.Notice) {
	for _, notice := range notices {
		message := notice.Message
		if notice.Path != "" && !strings.Contains(message, notice.Path) {
			message = notice.Path + ": " + message
		}
		writeWarning(writer, message)
	}
}

func writeWarning(writer io.Writer, message string) {
	fmt.Fprintf(writer, utils.WarningLogFormat+"\n", message)
}

// IsUsageError reports whether err stems from invalid user input rather than a failed run.
func IsUsageError(err error) bool {
	return errors.Is(err, githubapi.ErrInvalidRepositoryURL) ||
		errors.Is(err, generator.ErrUnsupportedFormat) ||
		errors.Is(err, config.ErrConfigurationExists)
}
