package explorer

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/zeu5/keygrid-rl/grid"
	"github.com/zeu5/keygrid-rl/types"
)

// Runs the main interactive loop until quit or end of input
func (e *Explorer) Interact(in io.Reader, out io.Writer) {
	fmt.Fprintf(out, "%s", e.header())
	reader := bufio.NewReader(in)
	readLine := func() (string, bool) {
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", false
		}
		return strings.TrimSpace(line), true
	}
	for {
		fmt.Fprintf(out, "%s", e.prompt())

		optionS, ok := readLine()
		if !ok {
			return
		}
		option, err := strconv.Atoi(optionS)
		if err != nil {
			fmt.Fprintln(out, "Invalid input! Try again")
			continue
		}
		fmt.Fprintln(out, "------------------------------------")
		switch option {
		case 1:
			fmt.Fprintf(out, "%s", e.listTraces())
		case 2:
			fmt.Fprintf(out, "Enter the state (x,y,k): ")
			stateS, ok := readLine()
			if !ok {
				return
			}
			fmt.Fprintf(out, "%s", e.getQValues(stateS))
		case 3:
			fmt.Fprintf(out, "Enter trace number (1-%d): ", len(e.Traces))
			traceNoS, ok := readLine()
			if !ok {
				return
			}
			traceNo, err := strconv.Atoi(traceNoS)
			if err != nil {
				fmt.Fprintln(out, "Invalid input! Not a number. Try again")
				continue
			}
			if traceNo < 1 || traceNo > len(e.Traces) {
				fmt.Fprintf(out, "Invalid input! Should be between (1-%d). Try again\n", len(e.Traces))
				continue
			}
			if !e.interactTrace(traceNo-1, readLine, out) {
				return
			}
		case 4:
			fmt.Fprintln(out, "Quitting! Thank you")
			return
		default:
			fmt.Fprintln(out, "Wrong choice! Try again!")
		}
	}
}

func (e *Explorer) getQValues(state string) string {
	s, err := ParseStateKey(state)
	if err != nil {
		return fmt.Sprintf("Invalid state: %s\n", err)
	}
	if !e.Table.Has(s) {
		return "No such state in the q table\n"
	}
	values := e.Table.Values(s)
	out := "Q values are:\n"
	for _, a := range grid.AllActions {
		out += fmt.Sprintf("%s: %f\n", a, values[a])
	}
	return out
}

func (e *Explorer) listTraces() string {
	if len(e.Traces) == 0 {
		return "No traces recorded\n"
	}
	out := "Traces are:\n"
	for i, t := range e.Traces {
		out += fmt.Sprintf("%d. %s\n", i+1, Summarize(t))
	}
	return out
}

func (e *Explorer) header() string {
	return `
Welcome to the q table explorer!
	`
}

func (e *Explorer) prompt() string {
	return `
------------------------------------
Select one of the following options:
1. List traces
2. Show QValues
3. Explore a trace
4. Quit
Enter your choice: `
}

func (e *Explorer) tracePrompt() string {
	return `
---------------------------------------------
Step(s) QValues(d) Prev(p) Last(l) Quit(q): `
}

// returns false when the input ended
func (e *Explorer) interactTrace(traceNo int, readLine func() (string, bool), out io.Writer) bool {
	stepCount := 0
	trace := e.Traces[traceNo]
	if trace.Len() == 0 {
		fmt.Fprintln(out, "Empty trace!")
		return true
	}
	fmt.Fprintln(out, "---------------------------------------------")
	for {
		step, _ := trace.Get(stepCount)
		fmt.Fprintf(out, "For step %d\nState: %s\nAction: %s\nReward: %f\nNextState: %s\n",
			stepCount+1, step.State, step.Action, step.Reward, step.NextState)
		fmt.Fprintf(out, "%s", e.tracePrompt())
		option, ok := readLine()
		if !ok {
			return false
		}
		fmt.Fprintln(out, "---------------------------------------------")
		switch option {
		case "s":
			if stepCount == trace.Len()-1 {
				fmt.Fprintln(out, "No more steps!")
				continue
			}
			stepCount += 1
		case "d":
			fmt.Fprintf(out, "%s", e.qValuesOf(step.State))
		case "p":
			if stepCount == 0 {
				fmt.Fprintln(out, "No more steps!")
				continue
			}
			stepCount -= 1
		case "l":
			stepCount = trace.Len() - 1
		case "q":
			return true
		default:
			fmt.Fprintln(out, "Invalid option! Try again.")
		}
	}
}

func (e *Explorer) qValuesOf(s types.StateKey) string {
	return e.getQValues(s.String())
}
