package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type impl struct {
	name  string
	level AtomicLevel
	cores []zapcore.Core
	sugar *zap.SugaredLogger
}

func newImpl(name string, level AtomicLevel, cores ...zapcore.Core) *impl {
	sugar := zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Sugar()
	if name != "" {
		sugar = sugar.Named(name)
	}
	return &impl{name: name, level: level, cores: cores, sugar: sugar}
}

func (imp *impl) Sublogger(subname string) Logger {
	newName := subname
	if imp.name != "" {
		newName = fmt.Sprintf("%s.%s", imp.name, subname)
	}
	// Subloggers share outputs, but get their own level so that a noisy stage can be
	// silenced without affecting its parent.
	level := NewAtomicLevelAt(imp.level.Get())
	cores := make([]zapcore.Core, 0, len(imp.cores))
	for _, core := range imp.cores {
		cores = append(cores, &leveledCore{Core: core, level: level})
	}
	return newImpl(newName, level, cores...)
}

func (imp *impl) SetLevel(level Level) {
	imp.level.Set(level)
}

func (imp *impl) GetLevel() Level {
	return imp.level.Get()
}

func (imp *impl) AsZap() *zap.SugaredLogger {
	return imp.sugar
}

func (imp *impl) Sync() error {
	return imp.sugar.Sync()
}

func (imp *impl) Debug(args ...interface{}) { imp.sugar.Debug(args...) }

func (imp *impl) Debugf(template string, args ...interface{}) { imp.sugar.Debugf(template, args...) }

func (imp *impl) Debugw(msg string, keysAndValues ...interface{}) {
	imp.sugar.Debugw(msg, keysAndValues...)
}

func (imp *impl) Info(args ...interface{}) { imp.sugar.Info(args...) }

func (imp *impl) Infof(template string, args ...interface{}) { imp.sugar.Infof(template, args...) }

func (imp *impl) Infow(msg string, keysAndValues ...interface{}) {
	imp.sugar.Infow(msg, keysAndValues...)
}

func (imp *impl) Warn(args ...interface{}) { imp.sugar.Warn(args...) }

func (imp *impl) Warnf(template string, args ...interface{}) { imp.sugar.Warnf(template, args...) }

func (imp *impl) Warnw(msg string, keysAndValues ...interface{}) {
	imp.sugar.Warnw(msg, keysAndValues...)
}

func (imp *impl) Error(args ...interface{}) { imp.sugar.Error(args...) }

func (imp *impl) Errorf(template string, args ...interface{}) { imp.sugar.Errorf(template, args...) }

func (imp *impl) Errorw(msg string, keysAndValues ...interface{}) {
	imp.sugar.Errorw(msg, keysAndValues...)
}

// leveledCore gates an inner core behind an additional level. The inner core keeps its own
// level check too, so the stricter of the two wins.
type leveledCore struct {
	zapcore.Core
	level AtomicLevel
}

func (c *leveledCore) Enabled(lvl zapcore.Level) bool {
	return c.level.Enabled(lvl) && c.Core.Enabled(lvl)
}

func (c *leveledCore) With(fields []zapcore.Field) zapcore.Core {
	return &leveledCore{Core: c.Core.With(fields), level: c.level}
}

func (c *leveledCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(entry.Level) {
		return checked
	}
	return c.Core.Check(entry, checked)
}
