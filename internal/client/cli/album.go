package cli

import (
	"context"
	"fmt"
	"log"
	"strconv"
)

// addFile queues a local picture and drives its upload. Progress and the
// final state are rendered by the session's view as the upload advances.
func (a *App) addFile(ctx context.Context, path string) {
	if err := a.session.AddFile(ctx, path); err != nil {
		log.Println(err.Error())
	}
}

// listAlbum prints the album's live slots with status, key designation and
// deletion markers.
func (a *App) listAlbum() {
	reg := a.session.Registry()
	key := reg.KeyImage()

	shown := 0
	for i := 0; i < reg.Len(); i++ {
		r := reg.FindByLocalID(i)
		if !r.Live() {
			continue
		}
		shown++

		mark := " "
		if r == key {
			mark = "*"
		}
		name := r.Filename
		if name == "" {
			name = r.RemoteID
		}
		fmt.Printf("[%d]%s %-10s %s\n", r.LocalID, mark, r.Status, name)
	}
	if shown == 0 {
		fmt.Println("(album is empty)")
	}
}

// cancelUpload withdraws the numbered slot's queued or in-flight upload.
func (a *App) cancelUpload(ctx context.Context, arg string) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		fmt.Println("Usage: cancel <n>")
		return
	}
	if err := a.session.Cancel(ctx, n); err != nil {
		log.Println(err.Error())
	}
}

// setKey designates the numbered slot as the key picture.
func (a *App) setKey(arg string) {
	n, ok := a.slotNumber(arg, "key <n>")
	if !ok {
		return
	}
	if err := a.session.SetKey(n); err != nil {
		log.Println(err.Error())
	}
}

// toggleDelete flips the deletion marker on the numbered slot.
func (a *App) toggleDelete(arg string) {
	n, ok := a.slotNumber(arg, "del <n>")
	if !ok {
		return
	}
	if err := a.session.ToggleDelete(n); err != nil {
		log.Println(err.Error())
	}
}

// setOrder records the desired slot order for the next flush.
func (a *App) setOrder(args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: order <n> <n> ...")
		return
	}
	ids := make([]int, 0, len(args))
	for _, s := range args {
		n, err := strconv.Atoi(s)
		if err != nil {
			fmt.Println("Usage: order <n> <n> ...")
			return
		}
		ids = append(ids, n)
	}
	a.session.SetOrder(ids)
	fmt.Println("Order recorded; run 'flush' to submit")
}

// flush submits the accumulated order, key and deletion changes.
func (a *App) flush(ctx context.Context) {
	reg := a.session.Registry()
	if reg.HasUnfinishedUploads() {
		fmt.Println("Uploads still in progress; try again later")
		return
	}
	if err := a.session.Flush(ctx); err != nil {
		log.Println(err.Error())
		return
	}
	fmt.Println("Changes submitted")
}

func (a *App) slotNumber(arg, usage string) (int, bool) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		fmt.Println("Usage:", usage)
		return 0, false
	}
	if r := a.session.Registry().FindByLocalID(n); !r.Live() {
		fmt.Println("No such picture:", arg)
		return 0, false
	}
	return n, true
}
