package codec

import (
	"fmt"

	"github.com/arloliu/mpack/errs"
)

func encErr(category error) error {
	return errs.NewEncodeError(category, "")
}

func encErrf(category error, format string, args ...any) error {
	return errs.NewEncodeError(category, fmt.Sprintf(format, args...))
}

func decErr(category error) error {
	return errs.NewDecodeError(category, "")
}

func decErrf(category error, format string, args ...any) error {
	return errs.NewDecodeError(category, fmt.Sprintf(format, args...))
}
