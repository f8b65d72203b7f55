package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/edsrzf/mmap-go"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/xaionaro-go/uncrypt/pkg/descrypt"
	"github.com/xaionaro-go/uncrypt/pkg/uncrypt"
	"golang.org/x/sync/errgroup"
)

const (
	exitCodeExhausted   = 1
	exitCodeFatal       = 2
	exitCodeInterrupted = 130
)

func fatalIfError(ctx context.Context, err error) {
	if err == nil {
		return
	}

	logger.FromCtx(ctx).Error(err)
	os.Exit(exitCodeFatal)
}

func syntaxFatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, "error: "+format+"\n\n", args...)
	_, _ = fmt.Fprintf(os.Stderr, "syntax: %s [flags] /path/to/wordlist /path/to/passwd\n", os.Args[0])
	flag.PrintDefaults()
	os.Exit(int(syscall.EINVAL))
}

func main() {
	logLevel := logger.LevelWarning
	flag.Var(&logLevel, "log-level", "")
	settingsFlag := flag.String("settings", "", "path to a YAML file with the search settings")
	workersFlag := flag.Int("workers", -1, "the amount of brute-force workers per wave (default: the amount of CPUs)")
	noBruteForceFlag := flag.Bool("no-bruteforce", false, "stop after the dictionary campaigns")
	maxWavesFlag := flag.Int("max-waves", -1, fmt.Sprintf("the amount of brute-force waves, 0 is unlimited (default: %d)", uncrypt.DefaultMaxBruteForceWaves))
	netPprofFlag := flag.String("net-pprof", "", "")
	flag.Parse()

	if flag.NArg() != 2 {
		syntaxFatalf("required exactly 2 arguments, but received %d", flag.NArg())
	}

	ctx := logger.CtxWithLogger(context.Background(), logrus.Default().WithLevel(logLevel))
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *netPprofFlag != "" {
		go func() {
			logger.FromCtx(ctx).Error(http.ListenAndServe(*netPprofFlag, nil))
		}()
	}

	settings := uncrypt.DefaultSettings()
	if *settingsFlag != "" {
		var err error
		settings, err = uncrypt.LoadSettingsFile(*settingsFlag)
		fatalIfError(ctx, err)
	}
	if *workersFlag >= 0 {
		settings.Workers = *workersFlag
	}
	if *noBruteForceFlag {
		settings.SkipBruteForce = true
	}
	if *maxWavesFlag >= 0 {
		settings.MaxBruteForceWaves = *maxWavesFlag
	}

	wordlist, credentials, err := loadInputs(ctx, flag.Arg(0), flag.Arg(1))
	fatalIfError(ctx, err)

	if len(credentials) == 0 {
		logger.FromCtx(ctx).Infof("no credentials in '%s', nothing to do", flag.Arg(1))
		return
	}

	var stdoutLocker sync.Mutex
	result, err := uncrypt.RecoverPasswords(
		ctx,
		func(ctx context.Context, crack uncrypt.Crack) {
			stdoutLocker.Lock()
			defer stdoutLocker.Unlock()
			fmt.Println(crack.Plaintext)
			logger.FromCtx(ctx).Infof("%s: %s (%s)", crack.Credential.Account, crack.Plaintext, crack.Campaign)
		},
		credentials,
		uncrypt.BuildDictionary(credentials, wordlist),
		descrypt.Verify,
		settings,
	)
	fatalIfError(ctx, err)

	logger.FromCtx(ctx).Infof("%s after %d candidates: cracked %d of %d credentials",
		result.Status, result.GuessCount, len(result.Cracks), len(credentials))
	switch result.Status {
	case uncrypt.StatusFound:
	case uncrypt.StatusCancelled:
		os.Exit(exitCodeInterrupted)
	default:
		for _, c := range result.Remaining {
			logger.FromCtx(ctx).Warnf("have not cracked %s", c)
		}
		os.Exit(exitCodeExhausted)
	}
}

// loadInputs reads the wordlist and the credentials concurrently.
func loadInputs(
	ctx context.Context,
	wordlistPath string,
	passwdPath string,
) ([]string, []*uncrypt.Credential, error) {
	var (
		wordlist    []string
		credentials []*uncrypt.Credential
	)

	errGroup, _ := errgroup.WithContext(ctx)
	errGroup.Go(func() error {
		b, err := fileToBytes(wordlistPath)
		if err != nil {
			return err
		}
		wordlist = uncrypt.ParseWordlist(b)
		logger.FromCtx(ctx).Debugf("loaded %d words from '%s'", len(wordlist), wordlistPath)
		return nil
	})
	errGroup.Go(func() error {
		b, err := fileToBytes(passwdPath)
		if err != nil {
			return err
		}
		credentials, err = uncrypt.ParseCredentials(b)
		if err != nil {
			return fmt.Errorf("unable to parse the credentials from '%s': %w", passwdPath, err)
		}
		logger.FromCtx(ctx).Debugf("loaded %d credentials from '%s'", len(credentials), passwdPath)
		return nil
	})
	if err := errGroup.Wait(); err != nil {
		return nil, nil, err
	}
	return wordlist, credentials, nil
}

// fileToBytes returns the contents of the file by path `filePath`.
func fileToBytes(filePath string) ([]byte, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf(`unable to open the file "%v": %w`, filePath, err)
	}
	defer file.Close() // read-only

	// Wordlists may be large, so they are mapped rather than read.
	// Words are copied out of the mapping by ParseWordlist, and the
	// mapping itself lives until the process exits.
	contents, err := mmap.Map(file, mmap.RDONLY, 0)
	if err == nil {
		return contents, nil
	}

	// mmap does not work for empty files and pipes, so falling back to reading:
	contents, err = io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf(`unable to read the file "%v": %w`, filePath, err)
	}
	return contents, nil
}
