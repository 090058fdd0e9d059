// odo_watch processes a drop folder of cluster photos: every new image is
// run through the odometer pipeline and recorded as a photo (and trip) for
// the given user. Useful for bulk backfills and kiosk-style capture setups
// where photos land on disk instead of the upload endpoint.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"odolog/models"
	"odolog/pkg/odometer"

	"github.com/fsnotify/fsnotify"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	db        *gorm.DB
	extractor *odometer.Pipeline
)

func main() {
	dir := flag.String("dir", "", "directory to watch for cluster photos")
	username := flag.String("user", "admin", "owner of the recorded photos")
	workers := flag.Int("workers", 2, "concurrent extraction workers")
	watch := flag.Bool("watch", true, "keep watching after processing existing files")
	flag.Parse()
	if *dir == "" {
		log.Fatalf("-dir required")
	}

	dsn := os.Getenv("DB_DSN")
	if strings.TrimSpace(dsn) == "" {
		log.Fatal("DB_DSN not set in environment")
	}
	var err error
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	var user models.User
	if err := db.Where("username = ?", *username).First(&user).Error; err != nil {
		log.Fatalf("user %q not found: %v", *username, err)
	}
	extractor = odometer.New(odometer.ThoroughConfig(), odometer.NewTesseractEngine())

	initial := listImageFiles(*dir)
	log.Printf("processing %d existing files in %s", len(initial), *dir)
	runWorkerPool(*dir, user, initial, *workers, nil)

	if !*watch {
		return
	}
	if err := watchDirectory(*dir, user, *workers); err != nil {
		log.Fatalf("watch: %v", err)
	}
}

func listImageFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !isSupportedExt(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func watchDirectory(dir string, user models.User, workers int) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	log.Printf("Watching %s (debounced) ...", dir)

	fileCh := make(chan string, 256)
	go func() {
		// simple debounce map of pending files
		pending := map[string]time.Time{}
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					close(fileCh)
					return
				}
				if ev.Op&fsnotify.Create == fsnotify.Create {
					name := filepath.Base(ev.Name)
					if !isSupportedExt(name) {
						continue
					}
					pending[name] = time.Now()
				}
			case <-ticker.C:
				now := time.Now()
				for name, t := range pending {
					if now.Sub(t) > 300*time.Millisecond { // stable
						fileCh <- name
						delete(pending, name)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					close(fileCh)
					return
				}
				log.Printf("watch error: %v", err)
			}
		}
	}()

	runWorkerPool(dir, user, nil, workers, fileCh)
	return nil
}

func runWorkerPool(dir string, user models.User, initial []string, workers int, extra <-chan string) {
	fileCh := make(chan string, 1024)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range fileCh {
				processFile(dir, name, user)
			}
		}()
	}
	go func() {
		defer close(fileCh)
		for _, name := range initial {
			fileCh <- name
		}
		if extra != nil {
			for name := range extra {
				fileCh <- name
			}
		}
	}()
	wg.Wait()
}

// processFile is idempotent: a photo row already present for this user and
// file name is left alone.
func processFile(dir, name string, user models.User) {
	var existing models.Photo
	if err := db.Where("user_id = ? AND file_name = ?", user.ID, name).First(&existing).Error; err == nil {
		return
	}
	full := filepath.Join(dir, name)
	data, err := os.ReadFile(full)
	if err != nil {
		log.Printf("read %s: %v", name, err)
		return
	}
	src, err := odometer.Decode(name, mimeForExt(name), data)
	if err != nil {
		log.Printf("decode %s: %v", name, err)
		recordFailed(user.ID, name, err.Error())
		return
	}
	res, err := extractor.Run(context.Background(), src)
	if err != nil {
		log.Printf("pipeline %s: %v", name, err)
		return
	}
	photo := models.Photo{
		UserID:      user.ID,
		FileName:    name,
		StorePath:   full,
		ContentType: src.MIME,
		Width:       src.Width,
		Height:      src.Height,
		Odo:         res.Value,
	}
	if !res.Found() {
		photo.Failed = true
		photo.FailedReason = "no odometer candidate"
		if err := db.Create(&photo).Error; err != nil {
			log.Printf("save photo %s: %v", name, err)
		}
		log.Printf("%s: no candidate (%d passes)", name, len(res.Passes))
		return
	}
	if err := db.Create(&photo).Error; err != nil {
		log.Printf("save photo %s: %v", name, err)
		return
	}
	trip := models.Trip{UserID: user.ID, Date: time.Now(), OdoEnd: *res.Value, PhotoID: &photo.ID}
	if err := db.Create(&trip).Error; err != nil {
		log.Printf("save trip for %s: %v", name, err)
		return
	}
	db.Model(&models.Photo{}).Where("id = ?", photo.ID).Update("trip_id", trip.ID)
	log.Printf("%s: odo=%d (count=%d)", name, *res.Value, res.Ranked[0].Count)
}

func recordFailed(userID uint, name, reason string) {
	photo := models.Photo{UserID: userID, FileName: name, Failed: true, FailedReason: reason}
	if err := db.Create(&photo).Error; err != nil {
		log.Printf("save failed photo %s: %v", name, err)
	}
}

func isSupportedExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return true
	}
	return false
}

func mimeForExt(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
