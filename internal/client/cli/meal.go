package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/mealbook/mealbook/internal/client/services"
)

// listMeals fetches and prints the user's meals, numbered for "open <n>".
func (a *App) listMeals(ctx context.Context) {
	meals, err := a.api.ListMeals(ctx)
	if err != nil {
		log.Println(err.Error())
		return
	}

	a.meals = meals
	if len(meals) == 0 {
		fmt.Println("No meals yet. Use: new <title>")
		return
	}
	for i, m := range meals {
		fmt.Printf("%d. %s\n", i+1, m.Title)
	}
}

// newMeal creates a meal with the given title and opens its (empty) album.
func (a *App) newMeal(ctx context.Context, title string) {
	meal, err := a.api.CreateMeal(ctx, title)
	if err != nil {
		log.Println(err.Error())
		return
	}
	fmt.Printf("Created %q\n", meal.Title)
	a.openAlbum(ctx, meal.ID, meal.Title)
}

// openMeal resolves a number from the last listing and opens that meal's
// album.
func (a *App) openMeal(ctx context.Context, arg string) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(a.meals) {
		fmt.Println("Usage: open <n> (run 'meals' first)")
		return
	}
	meal := a.meals[n-1]
	a.openAlbum(ctx, meal.ID, meal.Title)
}

func (a *App) openAlbum(ctx context.Context, mealID, title string) {
	s := services.NewAlbumSession(mealID, a.api, a.repos.Journal, NewTermView(os.Stdout), a.log)
	s.Alert(func(message string) {
		fmt.Println("!", message)
	})

	if err := s.Open(ctx); err != nil {
		log.Println(err.Error())
		return
	}

	a.session = s
	a.mealName = title
	fmt.Printf("Opened album of %q\n", title)
}

// closeAlbum drops the open session. Pending form state that was never
// flushed is discarded.
func (a *App) closeAlbum() {
	a.session = nil
	a.mealName = ""
}
