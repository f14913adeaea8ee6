package workflow

import (
	"fmt"

	"github.com/example/tablebook/internal/intent"
)

// Instructions handed to the executor. Wording is kept close to what a person
// would say while looking at the page.

func searchInstruction(restaurant string) string {
	return fmt.Sprintf("Type %q into the restaurant search box", restaurant)
}

const submitSearchInstruction = "Submit the search by pressing Enter or clicking the search button"

func openRestaurantInstruction(restaurant string) string {
	return fmt.Sprintf("Click the search result for the restaurant named %q to open its page", restaurant)
}

func reservationParametersInstruction(in intent.Intent) string {
	people := "people"
	if in.Party == 1 {
		people = "person"
	}
	return fmt.Sprintf(
		"In the reservation widget set the party size to %d %s, the date to %s and the time to %s, then click the button that finds available times",
		in.Party, people, in.Date.Human(), in.Time.Human(),
	)
}

func timeSlotInstruction(in intent.Intent) string {
	return fmt.Sprintf("Click the available time slot closest to %s", in.Time.Human())
}

const seatingInstruction = "Select the Standard seating option and continue"

func guestInfoInstruction(g Guest) string {
	return fmt.Sprintf(
		"Fill in the first name field with %q, the last name field with %q and the email field with %q. If offered to create an account, decline it",
		g.FirstName, g.LastName, g.Email,
	)
}

func phoneInstruction(phone string) string {
	return fmt.Sprintf("Fill in the phone number field with %q", phone)
}

const completeInstruction = "If there is a checkbox accepting terms or policies, check it. Then click the button that completes the reservation"
