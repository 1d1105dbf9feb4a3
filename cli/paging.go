package main

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/krancour/bbdata/sdk/data"
	"github.com/pkg/errors"
)

// page fetches and prints successive pages of a collection. After each page
// it offers to fetch the next one, but only on a terminal.
func page[T any](
	query data.Query,
	fetch func(data.Query) (*data.Collection[T], error),
	printPage func(*data.Collection[T]) error,
	noun string,
) error {
	for {
		collection, err := fetch(query)
		if err != nil {
			return err
		}

		if len(collection.Items) == 0 {
			if query.Offset == 0 {
				fmt.Printf("No %s found.\n", noun)
			}
			return nil
		}

		if err := printPage(collection); err != nil {
			return err
		}

		remaining := collection.RemainingItemCount(
			query.Offset,
			len(collection.Items),
		)
		if remaining < 1 || query.Limit == 0 {
			return nil
		}

		// Exit after one page of output if this isn't a terminal
		if !isTerminal() {
			return nil
		}

		shouldContinue, err := askToContinue(remaining)
		if err != nil {
			return err
		}
		if !shouldContinue {
			return nil
		}

		query = query.Next(len(collection.Items))
	}
}

func askToContinue(remaining int64) (bool, error) {
	var shouldContinue bool
	fmt.Println()
	if err := survey.AskOne(
		&survey.Confirm{
			Message: fmt.Sprintf("%d results remain. Fetch more?", remaining),
		},
		&shouldContinue,
	); err != nil {
		return false, errors.Wrap(
			err,
			"error confirming if user wishes to continue",
		)
	}
	fmt.Println()
	return shouldContinue, nil
}
