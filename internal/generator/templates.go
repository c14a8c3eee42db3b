package generator

// Placeholder tokens. Each template is filled with a single-pass replacer, so a
// value that happens to contain a token is inserted as is.
const (
	phTitle         = "[TITLE]"
	phLastUpdate    = "[LAST_UPDATE]"
	phErrorReports  = "[ERROR_REPORTS]"
	phModals        = "[MODALS]"
	phReportName    = "[ERROR_REPORT_NAME]"
	phNewCount      = "[NEW_ERROR_COUNT]"
	phInProgress    = "[IN_PROGRESS_COUNT]"
	phFixedCount    = "[FIXED_COUNT]"
	phCannotFix     = "[CANNOT_FIX_COUNT]"
	phDate          = "[DATE]"
	phURL           = "[URL]"
	phServiceItemID = "[SERVICE_ITEM_ID]"
	phModalTitle    = "[MODAL_TITLE]"
	phTable         = "[TABLE]"
)

const noRecordsHTML = "<h3>No records to display</h3>"

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1, shrink-to-fit=no">
    <title>[TITLE]</title>

    <link rel="stylesheet" href="https://stackpath.bootstrapcdn.com/bootstrap/4.3.1/css/bootstrap.min.css" integrity="sha384-ggOyR0iXCbMQv3Xipma34MD+dH/1fQ784/j6cY/iJTQUOhcWr7x9JvoRxT2MZw1T" crossorigin="anonymous">
    <link rel="stylesheet" href="https://unpkg.com/leaflet@1.7.1/dist/leaflet.css" />
    <script src="https://unpkg.com/leaflet@1.7.1/dist/leaflet.js"></script>
    <style>
       :root {
          --accent: #1f4e79;
          --accent-hover: #2e6da4;
          --new-color: #c0392b;
          --progress-color: #d68910;
          --fixed-color: #1e8449;
          --cannot-fix-color: #7f8c8d;
       }
       .jumbotron { background-color: var(--accent); color: #fff; }
       .jumbotron.footer { margin-bottom: 0; margin-top: 40px; }
       .card { border-radius: 6px; }
       .error { font-weight: bold; }
       .newErrorCount   { color: var(--new-color); }
       .inProgressCount { color: var(--progress-color); }
       .fixedCount      { color: var(--fixed-color); }
       .cannotFixCount  { color: var(--cannot-fix-color); }
       .df-btn {
          display: inline-block; padding: 4px 10px; margin: 2px;
          border-radius: 4px; background-color: var(--accent); color: #fff;
          cursor: pointer; text-decoration: none; white-space: nowrap;
       }
       .df-btn:hover { background-color: var(--accent-hover); color: #fff; text-decoration: none; }
       .table-btn { font-size: 0.8em; }
       #map { height: 400px; width: 100%; }
    </style>
</head>

<body>
    <div class="jumbotron jumbotron-fluid">
        <div class="container">
            <h1 class="display-3">[TITLE]</h1>
            <hr>
            <p>Last updated [LAST_UPDATE]</p>
        </div>
    </div>

    <div class="container">
        <div class="card-columns">
            [ERROR_REPORTS]
        </div>
    </div>

    <div class="jumbotron jumbotron-fluid footer">
        <div class="container"></div>
    </div>

    <!-- Record tables, one modal per error report -->
    [MODALS]

    <div class="modal" id="mapModal" tabindex="-1" role="dialog" aria-labelledby="mapLabel" aria-hidden="true">
        <div class="modal-dialog" role="document">
            <div class="modal-content">
                <div class="modal-header">
                    <h5 class="modal-title" id="mapLabel">Error Report Location</h5>
                    <button type="button" class="close" data-dismiss="modal" aria-label="Close"><span aria-hidden="true">&times;</span></button>
                </div>
                <div class="modal-body">
                    <div id="map"></div>
                </div>
                <div class="modal-footer">
                    <div id="btnGoHereInAGOL" class="df-btn btnGoHereInAGOL" data-dismiss="modal" data-mapID="">Go Here in AGOL</div>
                    <div class="df-btn" data-dismiss="modal">Close</div>
                </div>
            </div>
        </div>
    </div>

    <script src="https://code.jquery.com/jquery-3.3.1.slim.min.js" integrity="sha384-q8i/X+965DzO0rT7abK41JStQIAqVgRVzpbzo5smXKp4YfRvH+8abtTE1Pi6jizo" crossorigin="anonymous"></script>
    <script src="https://cdnjs.cloudflare.com/ajax/libs/popper.js/1.14.7/umd/popper.min.js" integrity="sha384-UO2eT0CpHqdSJQ6hJty5KVphtPhzWj9WO1clHTMGa3JDZwrnQq4sF86dIHNDz0W1" crossorigin="anonymous"></script>
    <script src="https://stackpath.bootstrapcdn.com/bootstrap/4.3.1/js/bootstrap.min.js" integrity="sha384-JjSmVgyd0p3pXB1rRibZUAYoIIy6OrQ6VrjIEaFf/nJGzIxFDsf4x0xIM+B07jRM" crossorigin="anonymous"></script>

    <script>
       $(document).ready(function() {
          const map = L.map('map').setView([37.5, -77.4], 10);
          L.tileLayer('https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png', {
             attribution: '&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors'
          }).addTo(map);

          const marker = L.circleMarker([0, 0], {radius: 10, fillColor: 'red', fillOpacity: 0.5}).addTo(map);

          function webmapURL(mapID, lat, lng, level) {
             return 'https://www.arcgis.com/home/webmap/viewer.html?webmap=' + mapID +
                '&center=' + lng + ',' + lat + '&level=' + level;
          }

          // Record geometries are Web Mercator; Leaflet wants lat/lng.
          function cellLatLng(cell) {
             const point = new L.Point(cell.attr('data-lng'), cell.attr('data-lat'));
             return L.Projection.SphericalMercator.unproject(point);
          }

          function showMap(coords, mapID, comment) {
             $('#mapModal').modal('show');
             marker.setLatLng(coords);
             marker.unbindPopup();
             if (comment) {
                marker.bindPopup(comment);
             }
             map.setView(coords, 13);
             $('#btnGoHereInAGOL').attr('data-mapID', mapID);
             setTimeout(function() { map.invalidateSize(); }, 500);
          }

          $('#btnGoHereInAGOL').on('click', function() {
             const center = map.getCenter();
             window.open(webmapURL($(this).attr('data-mapID'), center.lat, center.lng, map.getZoom()));
          });

          $('.viewMap').on('click', function() {
             const cell = $(this);
             showMap(cellLatLng(cell), cell.attr('data-mapID'), cell.attr('data-comment'));
          });

          $('.openInAGOL').on('click', function() {
             const cell = $(this);
             const coords = cellLatLng(cell);
             window.open(webmapURL(cell.attr('data-mapID'), coords.lat, coords.lng, 13));
          });
       });
    </script>
</body>
</html>
`

const cardTemplate = `<div class="card">
                <div class="card-body">
                    <h4 class="card-title">[ERROR_REPORT_NAME]</h4>
                    <ul>
                        <li class="card-text">There are <span class="error newErrorCount">[NEW_ERROR_COUNT]</span> new errors.</li>
                        <li class="card-text"><span class="error inProgressCount">[IN_PROGRESS_COUNT]</span> errors are being fixed now.</li>
                        <li class="card-text"><span class="error fixedCount">[FIXED_COUNT]</span> errors have been fixed.</li>
                        <li class="card-text"><span class="error cannotFixCount">[CANNOT_FIX_COUNT]</span> errors can not be fixed.</li>
                    </ul>
                    <p class="card-text"><small class="text-muted">Last updated [DATE]</small></p>
                    <a href="" class="df-btn er-btn" data-toggle="modal" data-target="#[SERVICE_ITEM_ID]">View Records</a>
                    <a href="[URL]" target="_blank" class="df-btn er-btn">View in AGOL</a>
                </div>
            </div>
`

const modalTemplate = `<div class="modal fade" id="[SERVICE_ITEM_ID]" tabindex="-1" role="dialog" aria-labelledby="[SERVICE_ITEM_ID]Label" aria-hidden="true">
        <div class="modal-dialog modal-xl modal-dialog-scrollable" role="document">
            <div class="modal-content">
                <div class="modal-header">
                    <h5 class="modal-title" id="[SERVICE_ITEM_ID]Label">[MODAL_TITLE]</h5>
                    <button type="button" class="close" data-dismiss="modal" aria-label="Close"><span aria-hidden="true">&times;</span></button>
                </div>
                <div class="modal-body">
                    [TABLE]
                </div>
                <div class="modal-footer">
                    <div class="df-btn" data-dismiss="modal">Close</div>
                </div>
            </div>
        </div>
    </div>
`
