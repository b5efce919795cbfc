// Command recordkit inspects and edits the records of the catalog models
// from the shell.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/coderi421/recordkit/orm"
)

const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	a := &app{}
	root := newRootCmd(a)
	root.SetArgs(args)
	if err := execute(root, a); err != nil {
		reportError(root.ErrOrStderr(), err)
		return exitCode(err)
	}
	return exitSuccess
}

// execute 不管命令成功与否都释放 a 打开的资源
func execute(root *cobra.Command, a *app) error {
	err := root.Execute()
	return errors.Join(err, a.close(context.Background()))
}

// exitCode 用户输入导致的错误返回 1，数据库和网络错误返回 2
func exitCode(err error) int {
	var e *orm.Error
	if !errors.As(err, &e) {
		return exitUserError
	}
	switch e.Kind {
	case orm.KindValidationFailed, orm.KindNotFound,
		orm.KindConfiguration, orm.KindConstraintViolation:
		return exitUserError
	default:
		return exitSysError
	}
}
