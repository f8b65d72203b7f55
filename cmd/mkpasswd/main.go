package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/xaionaro-go/uncrypt/pkg/descrypt"
	"github.com/xaionaro-go/uncrypt/pkg/uncrypt"
)

func fatalIfError(ctx context.Context, err error) {
	if err == nil {
		return
	}

	logger.FromCtx(ctx).Error(err)
	os.Exit(2)
}

func fatalSyntax() {
	_, _ = fmt.Fprintf(os.Stderr, "syntax: %s [flags] account salt password [gecos]\n", os.Args[0])
	flag.PrintDefaults()
	os.Exit(int(syscall.EINVAL))
}

// Prints a passwd(5) line with a DES crypt(3) password; used to make
// inputs for uncrypt.
func main() {
	logLevel := logger.LevelWarning
	flag.Var(&logLevel, "log-level", "")
	uidFlag := flag.Uint("uid", 1000, "")
	gidFlag := flag.Uint("gid", 1000, "")
	homeFlag := flag.String("home", "", "home directory (default: /home/<account>)")
	shellFlag := flag.String("shell", "/bin/sh", "")
	flag.Parse()

	if flag.NArg() != 3 && flag.NArg() != 4 {
		fatalSyntax()
	}
	ctx := logger.CtxWithLogger(context.Background(), logrus.Default().WithLevel(logLevel))

	account, salt, password := flag.Arg(0), flag.Arg(1), flag.Arg(2)
	gecos := flag.Arg(3)
	if len(password) > descrypt.MaxKeySize {
		logger.FromCtx(ctx).Warnf("only the first %d characters of the password are significant", descrypt.MaxKeySize)
	}

	encrypted, err := descrypt.Crypt(password, salt)
	fatalIfError(ctx, err)

	home := *homeFlag
	if home == "" {
		home = "/home/" + account
	}

	line := strings.Join([]string{
		account,
		encrypted,
		fmt.Sprint(*uidFlag),
		fmt.Sprint(*gidFlag),
		gecos,
		home,
		*shellFlag,
	}, ":")

	// the line must be readable by uncrypt
	_, err = uncrypt.ParseCredential(0, line)
	fatalIfError(ctx, err)

	fmt.Println(line)
}
