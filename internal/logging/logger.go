// Copyright (c) 2022 The rcproxy Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logging wraps logrus with the leveled, lazy-format API that the
// rest of rbench calls. Diagnostics only: the benchmark's own report and
// progress output never goes through here, it goes to stdout directly.
package logging

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

var log = newDefault()

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// SetLevel parses one of debug|info|warn|error and applies it; an unknown
// level leaves the current level untouched.
func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return
	}
	log.SetLevel(lvl)
}

func Debugf(format string, v ...interface{}) {
	if log.IsLevelEnabled(logrus.DebugLevel) {
		log.Debugf(format, v...)
	}
}

// Debugfunc delays string concatenation until the debug level is actually enabled.
func Debugfunc(f func() string) {
	if log.IsLevelEnabled(logrus.DebugLevel) {
		log.Debug(f())
	}
}

func Infof(format string, v ...interface{}) {
	if log.IsLevelEnabled(logrus.InfoLevel) {
		log.Infof(format, v...)
	}
}

func Warnf(format string, v ...interface{}) {
	if log.IsLevelEnabled(logrus.WarnLevel) {
		log.Warnf(format, v...)
	}
}

func Errorf(format string, v ...interface{}) {
	if log.IsLevelEnabled(logrus.ErrorLevel) {
		log.Errorf(format, v...)
	}
}

func Error(v ...interface{}) {
	if log.IsLevelEnabled(logrus.ErrorLevel) {
		log.Error(fmt.Sprint(v...))
	}
}
