// Copyright 2025 Tom Barlow
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

package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// fakeProcess is a scripted Process. It exits when one of the exitOn*
// triggers fires or after exitAfterPolls liveness checks.
type fakeProcess struct {
	pid    int32
	name   string
	exe    string
	parent Process

	nameErr    error
	exeErr     error
	parentErr  error
	runningErr error

	alive          bool
	polls          int
	exitAfterPolls int

	exitOnQuit      bool
	exitOnTerminate bool
	exitOnKill      bool
	terminateErr    error
	killErr         error

	terminates int
	kills      int
	// signalledDead counts signals sent after the process had exited.
	signalledDead int
}

func newFake(pid int32, name, exe string) *fakeProcess {
	return &fakeProcess{pid: pid, name: name, exe: exe, alive: true, exitOnKill: true}
}

func (p *fakeProcess) PID() int32 { return p.pid }

func (p *fakeProcess) Name() (string, error) {
	if p.nameErr != nil {
		return "", p.nameErr
	}
	return p.name, nil
}

func (p *fakeProcess) Exe() (string, error) {
	if p.exeErr != nil {
		return "", p.exeErr
	}
	// Like a real process table, the path is unreadable after exit.
	if !p.alive {
		return "", ErrProcessNotRunning
	}
	return p.exe, nil
}

func (p *fakeProcess) Parent() (Process, error) {
	return p.parent, p.parentErr
}

func (p *fakeProcess) IsRunning() (bool, error) {
	p.polls++
	if p.exitAfterPolls > 0 && p.polls >= p.exitAfterPolls {
		p.alive = false
	}
	if p.runningErr != nil {
		return false, p.runningErr
	}
	return p.alive, nil
}

func (p *fakeProcess) Terminate() error {
	p.terminates++
	if !p.alive {
		p.signalledDead++
		return ErrProcessNotRunning
	}
	if p.terminateErr != nil {
		return p.terminateErr
	}
	if p.exitOnTerminate {
		p.alive = false
	}
	return nil
}

func (p *fakeProcess) Kill() error {
	p.kills++
	if !p.alive {
		p.signalledDead++
		return ErrProcessNotRunning
	}
	if p.killErr != nil {
		return p.killErr
	}
	if p.exitOnKill {
		p.alive = false
	}
	return nil
}

type fakeTable struct {
	procs []Process
	err   error
}

func (t *fakeTable) Processes(context.Context) ([]Process, error) {
	return t.procs, t.err
}

type fakeClock struct {
	now    time.Time
	sleeps int
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps++
	c.now = c.now.Add(d)
}

// fakeQuitter asks every process with a matching name to quit.
type fakeQuitter struct {
	procs []*fakeProcess
	calls []string
	err   error
}

func (q *fakeQuitter) Quit(appName string) error {
	q.calls = append(q.calls, appName)
	for _, p := range q.procs {
		if p.name == appName && p.exitOnQuit {
			p.alive = false
		}
	}
	return q.err
}

type fakeRunner struct {
	started []string
	ran     []string
	fail    map[string]error
	nextPID int
}

func (r *fakeRunner) Start(binary string, args ...string) (int, error) {
	cmd := strings.TrimSpace(binary + " " + strings.Join(args, " "))
	r.started = append(r.started, cmd)
	if err := r.fail[binary]; err != nil {
		return 0, err
	}
	r.nextPID++
	return 1000 + r.nextPID, nil
}

func (r *fakeRunner) Run(binary string, args ...string) error {
	r.ran = append(r.ran, fmt.Sprintf("%s %s", binary, strings.Join(args, " ")))
	return r.fail[binary]
}
