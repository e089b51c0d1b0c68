package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"coffee_configurator/internal/clients/seafile"
	"coffee_configurator/internal/domain/models"
	"coffee_configurator/internal/lib/logger/sl"
	"coffee_configurator/internal/metrics"
	"coffee_configurator/internal/repository"
	"coffee_configurator/internal/storage"
	filestorage "coffee_configurator/internal/storage/filestorage"
)

const (
	DefaultLinkTTL = 30 * time.Minute

	fallbackExt = ".jpg"
	maxExtLen   = 5
	galleryDir  = "gallery"
	mainStem    = "main"
	linkKey     = "seafile:link:"
)

var ErrSeafileNotConfigured = errors.New("seafile is not configured")

type SeafileClient interface {
	ListDirectory(ctx context.Context, path string) ([]seafile.Entry, error)
	FileDownloadLink(ctx context.Context, path string) (string, error)
}

type Downloader interface {
	// Open возвращает (nil, nil), если источник отказал в доступе (401/403).
	Open(ctx context.Context, url string) (io.ReadCloser, error)
}

// CacheResult — итог полного обновления кеша машины
type CacheResult struct {
	Main    string
	Designs int
	Gallery []string
}

type MediaService struct {
	log         *slog.Logger
	fileStorage filestorage.FileStorage
	seafile     SeafileClient
	downloader  Downloader
	cache       repository.CacheRepository
	linkTTL     time.Duration
}

// NewMediaService создаёт кеш медиа. seafile и cache могут быть nil.
func NewMediaService(
	log *slog.Logger,
	fileStorage filestorage.FileStorage,
	seafileClient SeafileClient,
	downloader Downloader,
	cache repository.CacheRepository,
	linkTTL time.Duration,
) *MediaService {
	if linkTTL <= 0 {
		linkTTL = DefaultLinkTTL
	}

	return &MediaService{
		log:         log,
		fileStorage: fileStorage,
		seafile:     seafileClient,
		downloader:  downloader,
		cache:       cache,
		linkTTL:     linkTTL,
	}
}

// CacheMachineMedia очищает каталог машины и заново скачивает main, design_images и галерею.
// Ошибки отдельных файлов логируются и пропускаются.
func (s *MediaService) CacheMachineMedia(ctx context.Context, m *models.CoffeeMachine) CacheResult {
	const op = "media_service.CacheMachineMedia"

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("machine_id", m.ID),
	)

	var result CacheResult

	if err := s.ClearMachineCache(m.ID); err != nil {
		log.Warn("failed to clear machine cache", sl.Err(err))
	}

	if u, err := s.fetchMain(ctx, m); err != nil {
		log.Warn("failed to cache main image", sl.Err(err))
	} else {
		result.Main = u
	}

	for frameColor, inserts := range m.DesignImages {
		for insertColor, img := range inserts {
			u, err := s.fetchDesign(ctx, m.ID, frameColor, insertColor, img)
			if err != nil {
				log.Warn("failed to cache design image",
					slog.String("frame_color", frameColor),
					slog.String("insert_color", insertColor),
					sl.Err(err),
				)
				continue
			}
			if u != "" {
				result.Designs++
			}
		}
	}

	gallery, err := s.fetchGallery(ctx, m)
	if err != nil {
		log.Warn("failed to cache gallery", sl.Err(err))
	}
	result.Gallery = gallery

	log.Info("machine media cached",
		slog.Bool("main", result.Main != ""),
		slog.Int("designs", result.Designs),
		slog.Int("gallery", len(result.Gallery)),
	)

	return result
}

// ClearMachineCache удаляет каталог машины; отсутствие каталога не ошибка.
func (s *MediaService) ClearMachineCache(id int64) error {
	const op = "media_service.ClearMachineCache"

	if err := s.fileStorage.RemoveAll(machineDir(id)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *MediaService) CachedMain(id int64) (string, bool) {
	rel, ok := s.fileStorage.FindByStem(machineDir(id), mainStem)
	if !ok {
		return "", false
	}

	return s.fileStorage.URL(rel), true
}

func (s *MediaService) CachedDesignImage(id int64, frameColor, insertColor string) (string, bool) {
	rel, ok := s.fileStorage.FindByStem(machineDir(id), designStem(frameColor, insertColor))
	if !ok {
		return "", false
	}

	return s.fileStorage.URL(rel), true
}

func (s *MediaService) CachedGallery(id int64) []string {
	dir := path.Join(machineDir(id), galleryDir)

	files, err := s.fileStorage.List(dir)
	if err != nil {
		return []string{}
	}

	urls := make([]string, 0, len(files))
	for _, name := range files {
		urls = append(urls, s.fileStorage.URL(path.Join(dir, name)))
	}

	return urls
}

// ResolveMain отдаёт URL закешированного главного фото, при промахе скачивает его.
func (s *MediaService) ResolveMain(ctx context.Context, m *models.CoffeeMachine) (string, bool) {
	const op = "media_service.ResolveMain"

	if u, ok := s.CachedMain(m.ID); ok {
		metrics.MediaCacheLookups.WithLabelValues("main", "hit").Inc()
		return u, true
	}
	metrics.MediaCacheLookups.WithLabelValues("main", "miss").Inc()

	u, err := s.fetchMain(ctx, m)
	if err != nil || u == "" {
		if err != nil {
			s.log.Warn("failed to fetch main image", slog.String("op", op), slog.Int64("machine_id", m.ID), sl.Err(err))
		}
		metrics.MediaCacheLookups.WithLabelValues("main", "failed").Inc()
		return "", false
	}
	metrics.MediaCacheLookups.WithLabelValues("main", "fetched").Inc()

	return u, true
}

// ResolveDesignImage — то же для пары цветов каркаса и вставки.
func (s *MediaService) ResolveDesignImage(ctx context.Context, m *models.CoffeeMachine, frameColor, insertColor string) (string, bool) {
	const op = "media_service.ResolveDesignImage"

	if u, ok := s.CachedDesignImage(m.ID, frameColor, insertColor); ok {
		metrics.MediaCacheLookups.WithLabelValues("design", "hit").Inc()
		return u, true
	}
	metrics.MediaCacheLookups.WithLabelValues("design", "miss").Inc()

	img, ok := m.DesignImages.Lookup(frameColor, insertColor)
	if !ok {
		return "", false
	}

	u, err := s.fetchDesign(ctx, m.ID, frameColor, insertColor, img)
	if err != nil || u == "" {
		if err != nil {
			s.log.Warn("failed to fetch design image",
				slog.String("op", op),
				slog.Int64("machine_id", m.ID),
				slog.String("frame_color", frameColor),
				slog.String("insert_color", insertColor),
				sl.Err(err),
			)
		}
		metrics.MediaCacheLookups.WithLabelValues("design", "failed").Inc()
		return "", false
	}
	metrics.MediaCacheLookups.WithLabelValues("design", "fetched").Inc()

	return u, true
}

// ResolveGallery отдаёт закешированную галерею, при пустом кеше скачивает папку целиком.
func (s *MediaService) ResolveGallery(ctx context.Context, m *models.CoffeeMachine) []string {
	const op = "media_service.ResolveGallery"

	if cached := s.CachedGallery(m.ID); len(cached) > 0 {
		metrics.MediaCacheLookups.WithLabelValues("gallery", "hit").Inc()
		return cached
	}
	metrics.MediaCacheLookups.WithLabelValues("gallery", "miss").Inc()

	gallery, err := s.fetchGallery(ctx, m)
	if err != nil {
		s.log.Warn("failed to fetch gallery", slog.String("op", op), slog.Int64("machine_id", m.ID), sl.Err(err))
		metrics.MediaCacheLookups.WithLabelValues("gallery", "failed").Inc()
	}

	return gallery
}

// SeafileLink возвращает ссылку на скачивание, запоминая её в KV-кеше.
func (s *MediaService) SeafileLink(ctx context.Context, filePath string) (string, error) {
	const op = "media_service.SeafileLink"

	if s.seafile == nil {
		return "", fmt.Errorf("%s: %w", op, ErrSeafileNotConfigured)
	}

	key := linkKey + filePath

	if s.cache != nil {
		link, err := s.cache.Get(ctx, key)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, storage.ErrorNoSuchKey) {
			s.log.Warn("link cache read failed", slog.String("op", op), sl.Err(err))
		}
	}

	link, err := s.seafile.FileDownloadLink(ctx, filePath)
	if err != nil {
		metrics.ExternalCallFailures.WithLabelValues("seafile").Inc()
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, link, s.linkTTL); err != nil {
			s.log.Warn("link cache write failed", slog.String("op", op), sl.Err(err))
		}
	}

	return link, nil
}

// source выбирает, откуда качать фото: imagePath через Seafile, абсолютный image
// напрямую, image без схемы тоже как путь Seafile.
// linkPath — путь Seafile, по которому получена ссылка ("" для прямого URL).
func (s *MediaService) source(ctx context.Context, imagePath, image string) (src, linkPath string, err error) {
	switch {
	case imagePath != "":
		linkPath = imagePath
	case isAbsoluteURL(image):
		return image, "", nil
	case image != "":
		linkPath = image
	default:
		return "", "", nil
	}

	src, err = s.SeafileLink(ctx, linkPath)
	if err != nil {
		return "", "", err
	}

	return src, linkPath, nil
}

// forgetLink убирает ссылку из кеша, чтобы следующий запрос получил свежую.
func (s *MediaService) forgetLink(ctx context.Context, linkPath string) {
	if linkPath == "" || s.cache == nil {
		return
	}

	if err := s.cache.Delete(ctx, linkKey+linkPath); err != nil {
		s.log.Warn("link cache delete failed", slog.String("path", linkPath), sl.Err(err))
	}
}

// fetchMain качает main_image_path через Seafile, иначе абсолютный main_image.
// Относительный main_image уже раздаётся как статика и не скачивается.
func (s *MediaService) fetchMain(ctx context.Context, m *models.CoffeeMachine) (string, error) {
	image := m.MainImage
	if !isAbsoluteURL(image) {
		image = ""
	}

	src, linkPath, err := s.source(ctx, m.MainImagePath, image)
	if err != nil || src == "" {
		return "", err
	}

	u, err := s.store(ctx, mainRelPath(m.ID, src), src)
	if err != nil {
		s.forgetLink(ctx, linkPath)
	}

	return u, err
}

func (s *MediaService) fetchDesign(ctx context.Context, id int64, frameColor, insertColor string, img models.DesignImage) (string, error) {
	src, linkPath, err := s.source(ctx, img.MainImagePath, img.MainImage)
	if err != nil || src == "" {
		return "", err
	}

	rel := path.Join(machineDir(id), designStem(frameColor, insertColor)+guessExt(src, fallbackExt))

	u, err := s.store(ctx, rel, src)
	if err != nil {
		s.forgetLink(ctx, linkPath)
	}

	return u, err
}

func (s *MediaService) fetchGallery(ctx context.Context, m *models.CoffeeMachine) ([]string, error) {
	cached := []string{}

	if m.GalleryFolder == "" || s.seafile == nil {
		return cached, nil
	}

	folder := m.GalleryFolder
	if !strings.HasPrefix(folder, "/") {
		folder = "/" + folder
	}

	entries, err := s.seafile.ListDirectory(ctx, folder)
	if err != nil {
		metrics.ExternalCallFailures.WithLabelValues("seafile").Inc()
		return cached, err
	}

	for _, e := range entries {
		if !e.IsFile() {
			continue
		}

		filePath := e.Path
		if filePath == "" {
			filePath = strings.TrimRight(folder, "/") + "/" + e.Name
		}

		link, err := s.SeafileLink(ctx, filePath)
		if err != nil {
			s.log.Debug("gallery link unavailable", slog.String("path", filePath), sl.Err(err))
			continue
		}

		name := e.Name
		if name == "" {
			name = path.Base(filePath)
		}

		u, err := s.store(ctx, path.Join(machineDir(m.ID), galleryDir, galleryFileName(name, link)), link)
		if err != nil {
			s.forgetLink(ctx, filePath)
			s.log.Debug("gallery file not cached", slog.String("path", filePath), sl.Err(err))
			continue
		}
		if u != "" {
			cached = append(cached, u)
		}
	}

	return cached, nil
}

// store скачивает src в rel и возвращает публичный URL; "" если источник отказал в доступе.
func (s *MediaService) store(ctx context.Context, rel, src string) (string, error) {
	body, err := s.downloader.Open(ctx, src)
	if err != nil {
		metrics.ExternalCallFailures.WithLabelValues("download").Inc()
		return "", err
	}
	if body == nil {
		return "", nil
	}
	defer body.Close()

	if _, err := s.fileStorage.Write(ctx, rel, body); err != nil {
		return "", err
	}

	return s.fileStorage.URL(rel), nil
}

func machineDir(id int64) string {
	return strconv.FormatInt(id, 10)
}

func mainRelPath(id int64, src string) string {
	return path.Join(machineDir(id), mainStem+guessExt(src, fallbackExt))
}

func designStem(frameColor, insertColor string) string {
	return "design_" + safeColor(frameColor) + "_" + safeColor(insertColor)
}

func safeColor(c string) string {
	return strings.NewReplacer("/", "_", `\`, "_").Replace(c)
}

// guessExt берёт расширение из пути URL, если оно не длиннее 5 символов (с точкой).
func guessExt(rawURL, fallback string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}

	ext := path.Ext(p)
	if ext != "" && len(ext) <= maxExtLen {
		return ext
	}

	return fallback
}

func galleryFileName(name, link string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	if path.Ext(name) != "" {
		return name
	}

	return name + guessExt(link, fallbackExt)
}

func isAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
