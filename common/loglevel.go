package common

import (
	"reflect"

	"github.com/JeffreyRichter/enum/enum"
)

// LogLevel mirrors the teacher's common/fe-ste-models.go LogLevel: each
// level implies logging everything at that level and above.
var ELogLevel = LogLevel(0)

type LogLevel uint8

func (LogLevel) None() LogLevel    { return LogLevel(0) }
func (LogLevel) Error() LogLevel   { return LogLevel(1) }
func (LogLevel) Warning() LogLevel { return LogLevel(2) }
func (LogLevel) Info() LogLevel    { return LogLevel(3) }
func (LogLevel) Debug() LogLevel   { return LogLevel(4) }

func (l *LogLevel) Parse(s string) error {
	val, err := enum.Parse(reflect.TypeOf(l), s, true)
	if err == nil {
		*l = val.(LogLevel)
	}
	return err
}

func (l LogLevel) String() string {
	return enum.StringInt(l, reflect.TypeOf(l))
}
