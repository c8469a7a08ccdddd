package service

import "fmt"

// RecoverableError 单轮失败（拉取、解析、panic），循环记录后继续下一轮
type RecoverableError struct {
	Stage string
	Err   error
}

func (e *RecoverableError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *RecoverableError) Unwrap() error { return e.Err }

// FatalError 循环无法继续，进入 STOPPING 并由 Run 返回
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal: %v", e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }
