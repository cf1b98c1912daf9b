package domain

// MirrorReport — итог одного прохода синхронизации с зеркалом.
type MirrorReport struct {
	Total  int // сколько несинхронизированных анкет было взято в работу
	Synced int // сколько успешно вставлено в зеркало
	Failed int // сколько вставок не удалось
	// MarkFailed: вставки прошли, но пометить анкеты синхронизированными
	// не удалось — Synced нельзя считать подтвержденным.
	MarkFailed bool
}

// Pending — сколько анкет остается несинхронизированными после прохода.
func (r MirrorReport) Pending() int {
	if r.MarkFailed {
		return r.Total // ничего не помечено
	}
	return r.Total - r.Synced
}

// BackupReport — итог одного прохода резервного копирования.
type BackupReport struct {
	Total    int // всего анкет в основном хранилище
	Skipped  int // уже были в копии
	Inserted int // дописано этим проходом
	Failed   int // не удалось дописать
	Rows     int // итоговое количество строк данных в копии
}
