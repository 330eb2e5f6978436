package engine

// BackoffStrategy is a fixed command sequence tried when a move is blocked
type BackoffStrategy []Command

// backoffTable is tried in order; the first strategy whose every command
// succeeds ends the backoff
var backoffTable = [...]BackoffStrategy{
	{TurnRight, Advance, TurnLeft},
	{TurnRight, Advance, TurnRight},
	{TurnRight, Advance, TurnRight},
	{TurnRight, Back, TurnRight, Advance},
	{TurnLeft, TurnLeft, Advance},
}

// BackoffStrategyCount is the number of strategies in the table
const BackoffStrategyCount = len(backoffTable)

// BackoffStrategyAt returns a copy of the strategy at index i (0-based)
func BackoffStrategyAt(i int) BackoffStrategy {
	return append(BackoffStrategy(nil), backoffTable[i]...)
}

// BackoffStrategies returns a copy of the whole table in order
func BackoffStrategies() []BackoffStrategy {
	strategies := make([]BackoffStrategy, BackoffStrategyCount)
	for i := range backoffTable {
		strategies[i] = BackoffStrategyAt(i)
	}
	return strategies
}

func (s BackoffStrategy) String() string {
	out := "["
	for i, cmd := range s {
		if i > 0 {
			out += " "
		}
		out += cmd.String()
	}
	return out + "]"
}
